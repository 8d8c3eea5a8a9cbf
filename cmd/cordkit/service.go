package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"cordkit/pkg/config"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage cordkit as a system service",
	Long: `Install and control cordkit as a system service:
- Linux: systemd
- macOS: launchd
- Windows: Windows Service Manager

Installing, starting and stopping require administrator privileges.`,
}

// botService implements service.Interface around the bot fx app.
type botService struct {
	app    *fx.App
	logger service.Logger
}

func (s *botService) Start(svc service.Service) error {
	if s.logger != nil {
		s.logger.Info("Starting cordkit service")
	}
	s.app = newBotApp()
	if err := s.app.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.app.Start(ctx)
}

func (s *botService) Stop(svc service.Service) error {
	if s.logger != nil {
		s.logger.Info("Stopping cordkit service")
	}
	if s.app == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.app.Stop(ctx); err != nil {
		if s.logger != nil {
			s.logger.Errorf("Error stopping service: %v", err)
		}
		return err
	}
	return nil
}

// ServiceConfig returns the service definition. The config path in effect
// now is baked into the service arguments.
func ServiceConfig() *service.Config {
	args := []string{}
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(config.ConfigPathEnv))
	}
	if path != "" {
		args = append(args, "-c", path)
	}
	args = append(args, "service", "run")

	return &service.Config{
		Name:        "cordkit",
		DisplayName: "cordkit",
		Description: "Discord interaction handler",
		Arguments:   args,
	}
}

func newService() (service.Service, *botService, error) {
	prg := &botService{}
	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("creating service: %w", err)
	}
	return s, prg, nil
}

// serviceAction builds a subcommand running one service control action.
func serviceAction(use, short, done string, action func(service.Service) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := newService()
			if err != nil {
				return err
			}
			if err := action(s); err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			fmt.Println(done)
			return nil
		},
	}
}

var serviceRunCmd = &cobra.Command{
	Use:    "run",
	Short:  "Run under the service manager",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, prg, err := newService()
		if err != nil {
			return err
		}
		logger, err := s.Logger(nil)
		if err != nil {
			return fmt.Errorf("creating service logger: %w", err)
		}
		prg.logger = logger
		if err := s.Run(); err != nil {
			logger.Error(err)
			return err
		}
		return nil
	},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := newService()
		if err != nil {
			return err
		}
		status, err := s.Status()
		if err != nil {
			return fmt.Errorf("getting service status: %w", err)
		}
		fmt.Printf("Service Status: %s\n", statusString(status))
		return nil
	},
}

func statusString(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "Running"
	case service.StatusStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

func init() {
	serviceCmd.AddCommand(
		serviceAction("install", "Install as a system service", "Service installed. Use 'cordkit service start' to start it.", service.Service.Install),
		serviceAction("uninstall", "Remove the system service", "Service uninstalled.", service.Service.Uninstall),
		serviceAction("start", "Start the service", "Service started.", service.Service.Start),
		serviceAction("stop", "Stop the service", "Service stopped.", service.Service.Stop),
		serviceAction("restart", "Restart the service", "Service restarted.", service.Service.Restart),
		serviceRunCmd,
		serviceStatusCmd,
	)
}
