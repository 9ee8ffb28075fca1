package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/UB-CSE-IT/Autolab-Self-Service/config"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/autolab"
)

var (
	initTimeout time.Duration
	initForce   bool
)

var autolabCmd = &cobra.Command{
	Use:   "autolab",
	Short: "Manage the connection to the learning platform",
}

var autolabInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Authorize the portal through the OAuth device flow and store the refresh token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		tokens := autolab.FileTokenStore{Path: cfg.Autolab.RefreshTokenFile}
		ctx, cancel := context.WithTimeout(cmd.Context(), initTimeout)
		defer cancel()

		return runDeviceFlow(ctx, cmd.OutOrStdout(), newPlatformClient(cfg, tokens, logger), tokens, initForce)
	},
}

// deviceFlow is the part of the platform client the init command drives.
type deviceFlow interface {
	StartDeviceFlow(ctx context.Context) (*autolab.DeviceCode, error)
	AwaitAuthorization(ctx context.Context, deviceCode string, interval time.Duration) (string, error)
	ExchangeAuthorizationCode(ctx context.Context, code string) error
}

var errAlreadyInitialized = errors.New("a refresh token is already stored, pass --force to replace it")

// runDeviceFlow prints the user code to w only; it never goes to the log.
func runDeviceFlow(ctx context.Context, w io.Writer, flow deviceFlow, tokens autolab.TokenStore, force bool) error {
	if !force {
		current, err := tokens.Load()
		if err != nil {
			return err
		}
		if current != "" {
			return errAlreadyInitialized
		}
	}

	dc, err := flow.StartDeviceFlow(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Visit %s and enter the code %s\n", dc.VerificationURI, dc.UserCode)
	fmt.Fprintln(w, "Waiting for authorization...")

	code, err := flow.AwaitAuthorization(ctx, dc.DeviceCode, time.Second)
	if err != nil {
		return err
	}
	if err := flow.ExchangeAuthorizationCode(ctx, code); err != nil {
		return err
	}
	fmt.Fprintln(w, "refresh token stored")
	return nil
}

// newPlatformClient builds an uncached client; CLI runs are one-shot.
func newPlatformClient(cfg *config.Config, tokens autolab.TokenStore, logger *zap.Logger) *autolab.Client {
	return autolab.NewClient(autolab.Options{
		BaseURL:      cfg.Autolab.BaseURL,
		ClientID:     cfg.Autolab.ClientID,
		ClientSecret: cfg.Autolab.ClientSecret,
		RedirectURI:  cfg.Autolab.RedirectURI,
		Timeout:      cfg.Autolab.Timeout,
		Tokens:       tokens,
	}, logger)
}

func init() {
	autolabInitCmd.Flags().DurationVar(&initTimeout, "timeout", 10*time.Minute, "how long to wait for authorization")
	autolabInitCmd.Flags().BoolVar(&initForce, "force", false, "replace an existing refresh token")
	autolabCmd.AddCommand(autolabInitCmd)
	rootCmd.AddCommand(autolabCmd)
}
