package jukebox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"RaspCD/core/hub"
	"RaspCD/logger"
)

// 客户端控制指令
const (
	ActionPause    = "pause"
	ActionNext     = "next"
	ActionPrevious = "previous"
	ActionVolume   = "volume"
)

var errBadCommand = errors.New("invalid command")

// Command is the payload of a "command" websocket message.
type Command struct {
	Action string `json:"action"`
	Value  *int   `json:"value,omitempty"`
}

// Execute applies a command to the player.
func (s *Service) Execute(ctx context.Context, cmd Command) error {
	switch cmd.Action {
	case ActionPause:
		return s.ctrl.TogglePause(ctx)
	case ActionNext:
		return s.ctrl.Step(ctx, 1)
	case ActionPrevious:
		return s.ctrl.Step(ctx, -1)
	case ActionVolume:
		if cmd.Value == nil {
			return fmt.Errorf("%w: volume requires a value", errBadCommand)
		}
		return s.ctrl.SetVolume(ctx, *cmd.Value)
	default:
		return fmt.Errorf("%w: unknown action %q", errBadCommand, cmd.Action)
	}
}

// HandleMessage is the websocket read handler. Failures are reported back to
// the sending client only.
func (s *Service) HandleMessage(ctx context.Context, client *hub.Client, msg *hub.Message) {
	if msg.Type != hub.MsgTypeCommand {
		client.SendMessage(hub.MsgTypeError, errorPayload(fmt.Sprintf("unsupported message type %q", msg.Type)))
		return
	}

	var cmd Command
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		client.SendMessage(hub.MsgTypeError, errorPayload("malformed command"))
		return
	}

	if err := s.Execute(ctx, cmd); err != nil {
		logger.Warn("command failed", logger.String("client", client.ID), logger.String("action", cmd.Action), logger.ErrorField(err))
		client.SendMessage(hub.MsgTypeError, errorPayload(err.Error()))
	}
}

func errorPayload(message string) map[string]string {
	return map[string]string{"message": message}
}
