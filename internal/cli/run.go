package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/repoverify/repoverify/internal/config"
	"github.com/repoverify/repoverify/internal/pulp"
	"github.com/repoverify/repoverify/internal/scenario"
	"github.com/repoverify/repoverify/internal/signer"
	"github.com/repoverify/repoverify/internal/unit"
)

// runFlags are the command-line overrides on top of the config file.
type runFlags struct {
	configPath    string
	baseURL       string
	username      string
	password      string
	insecure      bool
	serverVersion string
	keyring       string
	keep          bool
}

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the verification scenarios",
		Long: `Creates throwaway repositories on the server, uploads package groups
and errata, publishes, and verifies the generated comps and updateinfo
documents. Exits non-zero when any discrepancy is found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runScenarios(cmd.Context(), cfg, flags.keep)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "Server base URL")
	cmd.Flags().StringVarP(&flags.username, "username", "u", "", "Server username")
	cmd.Flags().StringVarP(&flags.password, "password", "p", "", "Server password")
	cmd.Flags().BoolVar(&flags.insecure, "insecure", false, "Skip TLS certificate verification")
	cmd.Flags().StringVar(&flags.serverVersion, "server-version", "", "Server version, used to skip checks for known server issues")
	cmd.Flags().StringVar(&flags.keyring, "keyring", "", "Public keyring for verifying the repomd.xml signature")
	cmd.Flags().BoolVar(&flags.keep, "keep", false, "Keep the created repositories for inspection")

	return cmd
}

func loadConfig(flags runFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	// Flags win over file and environment.
	if flags.baseURL != "" {
		cfg.Server.BaseURL = flags.baseURL
	}
	if flags.username != "" {
		cfg.Server.Username = flags.username
	}
	if flags.password != "" {
		cfg.Server.Password = flags.password
	}
	if flags.insecure {
		cfg.Server.Insecure = true
	}
	if flags.serverVersion != "" {
		cfg.Server.Version = flags.serverVersion
	}
	if flags.keyring != "" {
		cfg.Server.Keyring = flags.keyring
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runScenarios(ctx context.Context, cfg *config.Config, keep bool) error {
	client, err := pulp.New(cfg.Server, cfg.Polling)
	if err != nil {
		return err
	}

	policy, err := scenario.NewDefectPolicy(cfg.Server.Version)
	if err != nil {
		return err
	}

	s := &scenario.Scenario{Client: client, Defects: policy}
	if cfg.Server.Keyring != "" {
		verifier, err := signer.NewVerifier(cfg.Server.Keyring)
		if err != nil {
			return fmt.Errorf("failed to load keyring: %w", err)
		}
		s.Signer = verifier
		logrus.Info("Metadata signature verification enabled")
	}

	var results []*scenario.Result
	defer func() {
		if keep {
			for _, r := range results {
				if r != nil && r.RepoID != "" {
					logrus.Infof("Keeping repository %s", r.RepoID)
				}
			}
			return
		}
		if err := s.Cleanup(context.Background(), results...); err != nil {
			logrus.Warnf("Cleanup failed: %v", err)
		}
	}()

	total := 0

	logrus.Info("Running package-group verification...")
	groupResult, err := s.RunGroups(ctx, []unit.PackageGroup{
		unit.MinimalGroup(),
		unit.RealisticGroup(),
	})
	results = append(results, groupResult)
	if err != nil {
		return err
	}
	total += report(groupResult)

	logrus.Info("Running erratum verification...")
	errataResult, err := s.RunErrata(ctx, []unit.Erratum{
		unit.TypicalErratum(),
		unit.ErratumWithoutPkglist(),
	})
	results = append(results, errataResult)
	if err != nil {
		return err
	}
	total += report(errataResult)

	if total > 0 {
		return fmt.Errorf("found %d discrepancies", total)
	}
	logrus.Info("All documents verified successfully!")
	return nil
}

// report prints the outcome of one run and returns its discrepancy count.
func report(r *scenario.Result) int {
	for _, id := range r.Skipped {
		logrus.Warnf("%s: skipped checks affected by server issue #%d", r.Kind, id)
	}
	for _, d := range r.Discrepancies {
		logrus.Errorf("%s: %s", r.Kind, d)
	}
	if len(r.Discrepancies) == 0 {
		logrus.Infof("%s document of %s is correct", r.Kind, r.RepoID)
	}
	return len(r.Discrepancies)
}
