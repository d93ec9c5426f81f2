package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitwit/walletbridge"
	"github.com/vitwit/walletbridge/builder"
	"github.com/vitwit/walletbridge/logger"
	"github.com/vitwit/walletbridge/metrics"
	"github.com/vitwit/walletbridge/parser"
	"github.com/vitwit/walletbridge/transport/wsadapter"
	"github.com/vitwit/walletbridge/types"
	"github.com/vitwit/walletbridge/utils"
	"gopkg.in/urfave/cli.v1"
)

const (
	defaultChain   = types.DefaultChain
	defaultNetwork = types.DefaultNetwork
)

var stdout io.Writer = os.Stdout

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return err
}

func parseCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("parse takes exactly one raw message", 2)
	}
	msg, err := parseRaw(c.Args().First())
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return printJSON(msg)
}

func parseRaw(raw string) (types.Message, error) {
	if parser.IsLegacyConnected(raw) {
		return parser.LegacyConnected(raw)
	}
	return parser.New(logger.NoopLogger{}, false).Parse(raw)
}

func buildCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("build needs an action", 2)
	}
	args := []string(c.Args())
	out, err := buildRequest(builder.New(), types.Action(args[0]), args[1:], c.String("chain"), c.String("network"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	_, err = fmt.Fprintln(stdout, out)
	return err
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func buildRequest(b *builder.Builder, action types.Action, args []string, chain, network string) (string, error) {
	switch action {
	case types.ActionConnectWallet:
		return b.ConnectWallet()
	case types.ActionDisconnect:
		return b.Disconnect()
	case types.ActionGetJwtToken:
		return b.GetJwtToken()
	case types.ActionOpenProfile:
		return b.OpenProfile(arg(args, 0))
	case types.ActionLogout:
		return b.Logout(arg(args, 0))
	case types.ActionGetBalance:
		return b.GetBalance(arg(args, 0), chain, arg(args, 1), network)
	case types.ActionGetWallets:
		return b.GetWallets()
	case types.ActionGetNetworks:
		return b.GetNetworks()
	case types.ActionSignMessage:
		return b.SignMessage(arg(args, 0), arg(args, 1))
	case types.ActionTransaction:
		return b.Transaction(arg(args, 0), arg(args, 1), arg(args, 2), arg(args, 3), chain, network)
	case types.ActionSwitchWallet:
		return b.SwitchWallet(arg(args, 0))
	case types.ActionSwitchNetwork:
		return b.SwitchNetwork(arg(args, 0))
	}
	return "", fmt.Errorf("unknown action %q", action)
}

func validateCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: validate address|amount|message|chain <value>", 2)
	}
	cfg := types.DefaultConfig()
	cfg.MaxAmount = c.String("max-amount")
	vc, err := utils.ValidatorConfigFromBridge(cfg)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	if err := validateValue(utils.NewValidator(vc), c.Args().Get(0), c.Args().Get(1), c.String("chain")); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	_, err = fmt.Fprintln(stdout, "ok")
	return err
}

func validateValue(v *utils.Validator, kind, value, chain string) error {
	switch kind {
	case "address":
		return v.ValidateAddress(chain, value)
	case "amount":
		_, err := v.ValidateAmount(value)
		return err
	case "message":
		return v.ValidateMessage(value)
	case "chain":
		return v.ValidateChain(value)
	}
	return fmt.Errorf("unknown kind %q", kind)
}

func loadConfig(path string) (*types.BridgeConfig, error) {
	if path == "" {
		return utils.LoadBridgeConfigFromEnv(utils.EnvPrefix)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return utils.ParseBridgeConfig(data)
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}

	log := logger.NewBridgeLogger(cfg.EnableDebugLogs)
	opts := []walletbridge.Option{walletbridge.WithLogger(log)}

	var metricsSrv *http.Server
	if addr := c.String("metrics-addr"); addr != "" {
		reg := prometheus.NewRegistry()
		rec, err := metrics.NewPrometheusRecorder(reg)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		opts = append(opts, walletbridge.WithMetrics(rec))
		metricsSrv = &http.Server{Addr: addr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", map[string]any{"error": err.Error()})
			}
		}()
	}

	adapter := wsadapter.New(wsadapter.Config{
		Addr:           cfg.ListenAddr,
		AllowedOrigins: cfg.AllowedOrigins,
	}, log)
	if err := adapter.Start(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	bridge, err := walletbridge.New(cfg, adapter, opts...)
	if err != nil {
		_ = adapter.Close()
		return cli.NewExitError(err.Error(), 2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := make(chan types.Event, 64)
	sub := bridge.Subscribe(events)
	go func() {
		for {
			select {
			case ev := <-events:
				logEvent(log, ev)
			case <-sub.Err():
				return
			}
		}
	}()

	log.Info("serving panel", map[string]any{"addr": adapter.Addr(), "panel_url": cfg.PanelURL()})
	err = bridge.Run(ctx)
	_ = bridge.Close()
	if metricsSrv != nil {
		_ = metricsSrv.Close()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}

func logEvent(log logger.Logger, ev types.Event) {
	fields := map[string]any{"event": string(ev.Kind())}
	switch e := ev.(type) {
	case types.Error:
		fields["code"] = e.Err.Code
		fields["error"] = e.Err.Message
		log.Warn("bridge event", fields)
		return
	case types.WalletConnected:
		fields["address"] = types.ShortenAddress(e.Address)
	case types.WalletInfoUpdated:
		fields["wallet"] = e.Wallet.String()
	case types.BalanceUpdated:
		fields["balance"] = e.Balance.Balance.String()
		fields["symbol"] = e.Balance.Symbol
	case types.TransactionSent:
		fields["hash"] = e.Hash
	case types.ConnectionStatusChanged:
		fields["connected"] = e.Connected
	}
	log.Info("bridge event", fields)
}
