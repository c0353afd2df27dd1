package cli

import (
	"os"

	"github.com/Swapica/order-proxy-svc/internal/config"
	"github.com/Swapica/order-proxy-svc/internal/data/postgres"
	"github.com/Swapica/order-proxy-svc/internal/service"
	"github.com/alecthomas/kingpin"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3"
)

func Run(args []string) bool {
	log := logan.New()

	defer func() {
		if rvr := recover(); rvr != nil {
			log.WithRecover(rvr).Error("app panicked")
		}
	}()

	app := kingpin.New("order-proxy-svc", "")

	runCmd := app.Command("run", "run command")
	serviceCmd := runCmd.Command("service", "run service")

	migrateCmd := app.Command("migrate", "migrate command")
	migrateUpCmd := migrateCmd.Command("up", "migrate db up")
	migrateDownCmd := migrateCmd.Command("down", "migrate db down")

	payloadCmd := app.Command("payload", "swap payload tools")
	decodeCmd := payloadCmd.Command("decode", "print the swap terms of a payload")
	payloadHex := decodeCmd.Arg("payload", "hex encoded payload").Required().String()
	wrappedNative := decodeCmd.Flag("wrapped-native", "wrapped native token used in router paths").String()

	cmd, err := app.Parse(args[1:])
	if err != nil {
		log.WithError(err).Error("failed to parse arguments")
		return false
	}

	// payload tools work offline, without a config file
	if cmd == decodeCmd.FullCommand() {
		if err := decodePayload(os.Stdout, *payloadHex, *wrappedNative); err != nil {
			log.WithError(err).Error("failed to decode payload")
			return false
		}
		return true
	}

	cfg := config.New(kv.MustFromEnv())
	log = cfg.Log()

	switch cmd {
	case serviceCmd.FullCommand():
		service.Run(cfg)
	case migrateUpCmd.FullCommand():
		err = postgres.MigrateUp(cfg.DB())
	case migrateDownCmd.FullCommand():
		err = postgres.MigrateDown(cfg.DB())
	default:
		log.Errorf("unknown command %s", cmd)
		return false
	}
	if err != nil {
		log.WithError(err).Error("failed to exec cmd")
		return false
	}
	return true
}
