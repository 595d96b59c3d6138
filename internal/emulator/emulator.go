package emulator

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/nanosign/internal/auth"
	"github.com/danmuck/nanosign/internal/command"
	"github.com/danmuck/nanosign/internal/config"
	"github.com/danmuck/nanosign/internal/crypto"
	"github.com/danmuck/nanosign/internal/device"
	"github.com/danmuck/nanosign/internal/prompt"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Emulator wires a device to its bus, screen and listeners.
type Emulator struct {
	Bus    *Bus
	Panel  *prompt.Panel
	Device *device.Device
	APDU   *APDUServer
	HTTP   *Server

	cfg config.DeviceConfig
	log zerolog.Logger
}

// New builds every component from cfg. Nothing listens until Run.
func New(cfg config.DeviceConfig, logger zerolog.Logger) (*Emulator, error) {
	if err := config.ValidateDeviceConfig(cfg); err != nil {
		return nil, err
	}
	keyring, err := crypto.NewKeyringHex(cfg.SeedHex)
	if err != nil {
		return nil, err
	}
	bus := NewBus()
	panel := prompt.NewPanel(cfg.ScreenHistory)
	confirm, err := confirmer(cfg.Confirm, bus, panel)
	if err != nil {
		return nil, err
	}
	env := command.Env{Crypto: keyring, Confirm: confirm, Display: panel}
	e := &Emulator{
		Bus:    bus,
		Panel:  panel,
		Device: device.New(cfg.Device(), env, logger),
		APDU:   NewAPDUServer(bus, logger),
		HTTP: NewServer(ServerConfig{
			Name:        cfg.Name,
			CorsOrigins: cfg.CorsOrigins,
			Validator:   auth.ForToken(cfg.APIToken),
		}, bus, panel, logger),
		cfg: cfg,
		log: logger,
	}
	return e, nil
}

func confirmer(mode string, bus *Bus, panel *prompt.Panel) (prompt.Confirmer, error) {
	switch mode {
	case config.ConfirmButtons:
		return prompt.Buttons{Presses: bus.Presses(), Done: bus.Done(), Display: panel}, nil
	case config.ConfirmApprove:
		return prompt.Fixed{Accept: true, Display: panel}, nil
	case config.ConfirmDecline:
		return prompt.Fixed{Accept: false, Display: panel}, nil
	case config.ConfirmTerminal:
		term := prompt.NewTerminal()
		return prompt.Func(func(s prompt.Screen) bool {
			panel.Show(s)
			defer panel.Show(prompt.Idle)
			return term.Confirm(s)
		}), nil
	default:
		return nil, fmt.Errorf("emulator: unknown confirm mode %q", mode)
	}
}

// Run drives the device loop and every configured listener until ctx is
// done or the host sends exit. Exit is reported as a nil error.
func (e *Emulator) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	// Closing the bus releases a prompt that is waiting on a button.
	g.Go(func() error {
		<-gctx.Done()
		e.Bus.Close()
		return nil
	})
	g.Go(func() error {
		defer e.Bus.Close()
		err := e.Device.Run(gctx, e.Bus)
		if errors.Is(err, device.ErrExit) {
			e.log.Info().Msg("device exited on host request")
		}
		return err
	})
	if e.cfg.APDUAddr != "" {
		g.Go(func() error { return e.APDU.ListenAndServe(gctx, e.cfg.APDUAddr) })
	}
	if e.cfg.HTTPAddr != "" {
		g.Go(func() error { return e.HTTP.ListenAndServe(gctx, e.cfg.HTTPAddr) })
	}
	err := g.Wait()
	if errors.Is(err, device.ErrExit) || errors.Is(err, context.Canceled) || errors.Is(err, ErrBusClosed) {
		return nil
	}
	return err
}
