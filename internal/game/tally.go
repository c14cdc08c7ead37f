package game

import "github.com/georgeca620-star/Ai-imposter/internal/models"

type VoteResult struct {
	Player models.Player `json:"player"`
	Votes  int           `json:"votes"`
}

type Results struct {
	AIWins      bool          `json:"aiWins"`
	AIPlayer    models.Player `json:"aiPlayer"`
	AIVotes     int           `json:"aiVotes"`
	TotalVotes  int           `json:"totalVotes"`
	VoteResults []VoteResult  `json:"voteResults"`
}

// Tally counts the non-empty votes of human players. The AI wins when nobody
// voted or when it got strictly less than half of the votes; receiving exactly
// half gets it caught.
func Tally(players []models.Player) Results {
	counts := make(map[string]int, len(players))
	var res Results
	for _, p := range players {
		if p.IsAI {
			res.AIPlayer = p
			continue
		}
		if p.Vote != "" {
			counts[p.Vote]++
			res.TotalVotes++
		}
	}
	if res.AIPlayer.ID != "" {
		res.AIVotes = counts[res.AIPlayer.ID]
	}
	res.AIWins = res.TotalVotes == 0 || 2*res.AIVotes < res.TotalVotes

	res.VoteResults = make([]VoteResult, 0, len(players))
	for _, p := range players {
		res.VoteResults = append(res.VoteResults, VoteResult{Player: p, Votes: counts[p.ID]})
	}
	return res
}
