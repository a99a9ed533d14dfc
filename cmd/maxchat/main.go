// Command maxchat connects to the chat service, subscribes to the configured
// chats and logs every inbound frame until interrupted or the server closes
// the connection.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/chrisboulton/maxchat-go"
	"github.com/chrisboulton/maxchat-go/internal/config"
	"github.com/chrisboulton/maxchat-go/internal/logging"
)

func main() {
	opts, err := ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "maxchat: %v\n", err)
		os.Exit(1)
	}
}

func run(opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if opts.Text != "" && opts.ChatID == 0 {
		return errors.New("-text requires -chat")
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessOpts := []maxchat.SessionOption{
		maxchat.WithLogger(logging.Slog(logger)),
		maxchat.WithWatchChats(cfg.WatchChats...),
		maxchat.WithUserAgent(cfg.UserAgent),
		maxchat.WithOrigin(cfg.Origin),
		maxchat.WithReadErrorLimit(cfg.ReadErrorLimit),
	}
	if cfg.SkipMalformed {
		sessOpts = append(sessOpts, maxchat.WithSkipMalformed())
	}

	sess := maxchat.NewSession(cfg.URL, cfg.Token, sessOpts...)
	if err := sess.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := sess.Stop(); err != nil {
			logger.Debug("stop", zap.Error(err))
		}
	}()

	// Unblock ReceiveLoop on signal
	go func() {
		<-ctx.Done()
		_ = sess.Stop()
	}()

	for _, chatID := range cfg.WatchChats {
		if err := sess.SubscribeChannel(ctx, chatID); err != nil {
			return err
		}
	}

	sess.StartKeepalive(ctx, cfg.KeepaliveInterval)

	if opts.Text != "" {
		if err := sess.SendMessage(ctx, opts.ChatID, opts.Text); err != nil {
			return err
		}
	}

	err = sess.ReceiveLoop(ctx, func(f maxchat.Frame) {
		op, _ := f.Opcode()
		seq, _ := f.Seq()
		logger.Info("frame",
			zap.Stringer("opcode", op),
			zap.Int64("seq", seq),
			zap.Any("payload", f.Payload()),
		)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
