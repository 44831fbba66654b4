// Package console drives the finder from a line-oriented stream, one turn
// per line. It serves local play-testing and scripted demos.
//
// Input lines have the form
//
//	<user>[@handle]: <text>
//	<user>[@handle]: !photo <file_id> [<width>x<height>] ...
//
// Each reply is written as "-> <recipient>: <text>" followed by its menu rows.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/teamfinder/mlbb-finder/internal/platform/logging"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/bot"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/reply"
)

const photoDirective = "!photo"

// TurnHandler processes one inbound turn.
type TurnHandler interface {
	Handle(ctx context.Context, turn bot.Turn) ([]reply.Reply, error)
}

// Transport reads turns from an input stream and writes replies.
type Transport struct {
	handler      TurnHandler
	in           io.Reader
	out          io.Writer
	languageCode string
	logger       *zap.Logger
}

// New creates a console transport. languageCode is attached to every turn.
func New(handler TurnHandler, in io.Reader, out io.Writer, languageCode string, logger *zap.Logger) *Transport {
	return &Transport{
		handler:      handler,
		in:           in,
		out:          out,
		languageCode: languageCode,
		logger:       logging.OrNop(logger),
	}
}

type scanned struct {
	line string
	err  error
	eof  bool
}

// Run handles lines in order until the input ends or ctx is cancelled. The
// reader goroutine exits once the underlying reader returns.
func (t *Transport) Run(ctx context.Context) error {
	if t == nil || t.handler == nil {
		return errors.New("console transport is not configured")
	}
	lines := make(chan scanned)
	done := make(chan struct{})
	defer close(done)

	go func() {
		scanner := bufio.NewScanner(t.in)
		for scanner.Scan() {
			select {
			case lines <- scanned{line: scanner.Text()}:
			case <-done:
				return
			}
		}
		select {
		case lines <- scanned{err: scanner.Err(), eof: true}:
		case <-done:
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case item := <-lines:
			if item.eof {
				if item.err != nil {
					return fmt.Errorf("read console input: %w", item.err)
				}
				return nil
			}
			if err := t.handleLine(ctx, item.line); err != nil {
				return err
			}
		}
	}
}

func (t *Transport) handleLine(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	turn, err := ParseLine(line)
	if err != nil {
		_, werr := fmt.Fprintf(t.out, "!! %v\n", err)
		return werr
	}
	turn.LanguageCode = t.languageCode
	replies, err := t.handler.Handle(ctx, turn)
	if err != nil {
		t.logger.Warn("console turn failed", zap.String("user_id", turn.UserID), zap.Error(err))
		_, werr := fmt.Fprintf(t.out, "!! %v\n", err)
		return werr
	}
	return WriteReplies(t.out, replies)
}

// ParseLine decodes one input line into a turn.
func ParseLine(line string) (bot.Turn, error) {
	sender, body, ok := strings.Cut(line, ":")
	if !ok {
		return bot.Turn{}, fmt.Errorf("expected <user>: <text>, got %q", line)
	}
	userID, handle, _ := strings.Cut(strings.TrimSpace(sender), "@")
	turn := bot.Turn{
		UserID:        strings.TrimSpace(userID),
		DisplayHandle: strings.TrimSpace(handle),
	}
	if turn.UserID == "" {
		return bot.Turn{}, fmt.Errorf("missing user in %q", line)
	}
	body = strings.TrimSpace(body)
	fields := strings.Fields(body)
	if len(fields) == 0 || fields[0] != photoDirective {
		turn.Text = body
		return turn, nil
	}
	if len(fields) == 1 {
		return bot.Turn{}, errors.New("!photo needs at least one file id")
	}
	for i := 1; i < len(fields); i++ {
		variant := bot.PhotoVariant{FileID: fields[i]}
		if i+1 < len(fields) {
			if w, h, ok := parseSize(fields[i+1]); ok {
				variant.Width, variant.Height = w, h
				i++
			}
		}
		turn.Photo = append(turn.Photo, variant)
	}
	return turn, nil
}

func parseSize(field string) (int, int, bool) {
	ws, hs, ok := strings.Cut(field, "x")
	if !ok {
		return 0, 0, false
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w < 0 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 {
		return 0, 0, false
	}
	return w, h, true
}

// WriteReplies renders replies in the console format.
func WriteReplies(out io.Writer, replies []reply.Reply) error {
	w := bufio.NewWriter(out)
	for _, r := range replies {
		fmt.Fprintf(w, "-> %s: %s\n", r.Recipient, r.Text)
		if r.PhotoRef != "" {
			fmt.Fprintf(w, "   (photo %s)\n", r.PhotoRef)
		}
		if r.RemoveMenu {
			fmt.Fprintln(w, "   (menu removed)")
		}
		if r.Menu != nil {
			for _, row := range r.Menu.Rows {
				fmt.Fprintf(w, "   [%s]\n", strings.Join(row, "] ["))
			}
		}
	}
	return w.Flush()
}
