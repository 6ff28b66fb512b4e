package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/starford/echonotes/internal/models"
)

const (
	writeWait      = 10 * time.Second
	maxSegmentSize = 64 << 10
)

// StreamReply is sent back on the stream for every note created.
type StreamReply struct {
	Note  *models.Note `json:"note,omitempty"`
	Error string       `json:"error,omitempty"`
}

// Serve reads segment events from conn until the peer closes or ctx is done.
// Each created note is echoed back as a StreamReply. Malformed messages get an
// error reply and the stream keeps going.
func (in *Intake) Serve(ctx context.Context, conn *websocket.Conn, logger *slog.Logger) error {
	conn.SetReadLimit(maxSegmentSize)

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
	})
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var seg Segment
		if err := json.Unmarshal(msg, &seg); err != nil {
			logger.Debug("bad segment", slog.String("error", err.Error()))
			if err := writeReply(conn, StreamReply{Error: "invalid segment"}); err != nil {
				return err
			}
			continue
		}

		note, created, err := in.Handle(seg)
		switch {
		case err != nil:
			logger.Warn("segment rejected", slog.String("error", err.Error()))
			if werr := writeReply(conn, StreamReply{Error: err.Error()}); werr != nil {
				return errors.Join(err, werr)
			}
		case created:
			if err := writeReply(conn, StreamReply{Note: &note}); err != nil {
				return err
			}
		}
	}
}

func writeReply(conn *websocket.Conn, r StreamReply) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(r)
}
