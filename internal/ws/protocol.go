package ws

import (
	"errors"

	"github.com/georgeca620-star/Ai-imposter/internal/game"
	"github.com/rs/zerolog/log"
)

// Inbound command names. Both transports carry the same payloads.
const (
	CmdJoin        = "join"
	CmdSendMessage = "sendMessage"
	CmdVote        = "vote"
)

const (
	CodeNotFound     = "not_found"
	CodeInvalidPhase = "invalid_phase"
	CodeAlreadyVoted = "already_voted"
	CodeNotJoined    = "not_joined"
	CodeRateLimited  = "rate_limited"
	CodeBadRequest   = "bad_request"
)

var errNotJoined = errors.New("join a game first")

// Command is one client->server message. Only the fields of its Type are read.
type Command struct {
	Type           string `json:"type"`
	GameID         string `json:"gameId,omitempty"`
	PlayerID       string `json:"playerId,omitempty"`
	Content        string `json:"content,omitempty"`
	TargetPlayerID string `json:"targetPlayerId"`
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound), errors.Is(err, game.ErrPlayerNotFound):
		return CodeNotFound
	case errors.Is(err, game.ErrInvalidPhase):
		return CodeInvalidPhase
	case errors.Is(err, game.ErrAlreadyVoted):
		return CodeAlreadyVoted
	case errors.Is(err, errNotJoined):
		return CodeNotJoined
	default:
		return CodeBadRequest
	}
}

// Handle runs one command for c. Failures are reported to c alone and
// returned for transports that acknowledge commands.
func (srv *Server) Handle(c *Client, cmd Command) error {
	if !c.limiter.Allow() {
		c.Send(game.NewErrorEvent(CodeRateLimited, "slow down"))
		return errors.New("rate limited")
	}
	var err error
	switch cmd.Type {
	case CmdJoin:
		err = srv.join(c, cmd.GameID, cmd.PlayerID)
	case CmdSendMessage:
		err = srv.sendMessage(c, cmd.Content)
	case CmdVote:
		err = srv.vote(c, cmd.TargetPlayerID)
	default:
		err = errors.New("unknown command " + cmd.Type)
	}
	if err != nil {
		log.Debug().Err(err).Str("sid", c.ID()).Str("cmd", cmd.Type).Msg("command rejected")
		c.Send(game.NewErrorEvent(errorCode(err), err.Error()))
	}
	return err
}

func (srv *Server) join(c *Client, gameID, playerID string) error {
	if gameID == "" || playerID == "" {
		return errors.New("gameId and playerId are required")
	}
	sess, err := srv.reg.Get(gameID)
	if err != nil {
		return err
	}
	// Players are never removed, so a player that resolves here still does
	// when Attach runs. Checking first keeps a rejected join from touching the
	// membership this connection already has.
	if _, err := sess.Player(playerID); err != nil {
		return err
	}
	if room, pid := c.membership(); room != "" && (room != gameID || pid != playerID) {
		srv.leave(c)
	}
	_, err = sess.Attach(playerID, func(st game.State) {
		srv.hub.Register(c, gameID, playerID)
		c.Send(game.NewGameStateEvent(st))
	})
	if err != nil {
		return err
	}
	log.Info().Str("sid", c.ID()).Str("roomId", gameID).Str("playerId", playerID).Msg("connection joined")
	return nil
}

func (srv *Server) session(c *Client) (*game.Session, string, error) {
	roomID, playerID := c.membership()
	if roomID == "" {
		return nil, "", errNotJoined
	}
	sess, err := srv.reg.Get(roomID)
	if err != nil {
		return nil, "", err
	}
	return sess, playerID, nil
}

func (srv *Server) sendMessage(c *Client, content string) error {
	sess, playerID, err := srv.session(c)
	if err != nil {
		return err
	}
	_, err = sess.SendMessage(playerID, content)
	return err
}

func (srv *Server) vote(c *Client, target string) error {
	sess, playerID, err := srv.session(c)
	if err != nil {
		return err
	}
	return sess.Vote(playerID, target)
}

// leave drops c from its room and marks the player disconnected when no other
// connection of theirs remains.
func (srv *Server) leave(c *Client) {
	roomID, playerID, remaining := srv.hub.Unregister(c)
	if roomID == "" || remaining > 0 {
		return
	}
	sess, err := srv.reg.Get(roomID)
	if err != nil {
		return
	}
	if err := sess.Detach(playerID); err != nil {
		log.Debug().Err(err).Str("roomId", roomID).Str("playerId", playerID).Msg("detach failed")
	}
}

func (srv *Server) disconnect(c *Client) {
	srv.leave(c)
	c.Close()
}
