package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/hubertat/servicemaker"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hubertat/grillkit"
	"github.com/hubertat/grillkit/igrill"
)

const defaultConfigFile = "config.json"
const envPrefix = "GRILLKIT"

var (
	Version string
	Build   string

	grillService = servicemaker.ServiceMaker{
		User:               "grillkit",
		ServicePath:        "/etc/systemd/system/grillkit.service",
		ServiceDescription: "GrillKit service: Weber iGrill probes as HomeKit temperature sensors. github.com/hubertat/grillkit",
		ExecDir:            "/srv/grillkit",
		ExecName:           "grillkit",
	}
)

func newRootCommand() *cobra.Command {
	var configFile string
	var install bool
	var debug bool

	cmd := &cobra.Command{
		Use:          "grillkit",
		Short:        "Expose an iGrill thermometer to HomeKit",
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if install {
				err := grillService.InstallService()
				if err != nil {
					return err
				}
				log.Info("service installed!")
				return nil
			}

			gk, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if debug {
				gk.Debug = true
			}
			if gk.Debug {
				log.SetLevel(log.DebugLevel)
			}

			return run(cmd.Context(), gk)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", defaultConfigFile, "path of the configuration file")
	cmd.Flags().BoolVar(&install, "install", false, "install service in os")
	cmd.Flags().BoolVar(&debug, "debug", false, "debug logging, including HomeKit and mDNS")

	return cmd
}

func loadConfig(configFile string) (*grillkit.GrillKit, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("PollInterval", igrill.DefaultPollInterval)
	v.SetDefault("MqttTopic", "grillkit")
	v.SetDefault("LowBatteryThreshold", 20)
	for _, key := range []string{"Name", "ServerAddress", "Port", "RequestTimeout", "HkPin", "HkDirectory", "HkAddress", "Debug", "MqttBroker"} {
		// AutomaticEnv only covers keys viper already knows about
		err := v.BindEnv(key)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to bind env for %s", key)
		}
	}

	err := v.ReadInConfig()
	if err != nil {
		log.Warn("can't read config file, using defaults and environment", "file", configFile, "err", err)
	}

	gk := &grillkit.GrillKit{}
	err = v.Unmarshal(gk)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode config %s", configFile)
	}

	return gk, nil
}

func run(ctx context.Context, gk *grillkit.GrillKit) error {
	log.Info("grillkit started", "version", Version, "build", Build)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := gk.Init(Version)
	if err != nil {
		return err
	}
	defer gk.Close()

	if len(gk.MqttBroker) > 0 {
		err = gk.InitMqtt(ctx)
		if err != nil {
			return err
		}
	}

	if !gk.HomeKitEnabled() {
		log.Warn("HomeKit not configured, only polling")
		gk.StartPolling(ctx)
		return nil
	}

	log.Info("Starting with HomeKit server")
	go gk.StartPolling(ctx)
	return gk.StartHomeKit(ctx)
}

func main() {
	err := newRootCommand().ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}
