package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cartCmd "github.com/velaire/ecommerce/cart/cmd"
	couponCmd "github.com/velaire/ecommerce/coupon/cmd"
	"github.com/velaire/ecommerce/internal/constants"
	"github.com/velaire/ecommerce/internal/log"
)

func Start() {
	logger := log.InitLogger("/var/log/ecommerce.log").
		With().
		Str(log.KeyAppName, constants.AppMainEcommerce).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{}
	commands := []*cobra.Command{
		{
			Use:   "cart",
			Short: "Run cart service",
			Run: func(cmd *cobra.Command, args []string) {
				cartCmd.RunCartService(cmd.Context())
			},
		},
		{
			Use:   "coupon",
			Short: "Run coupon service",
			Run: func(cmd *cobra.Command, args []string) {
				couponCmd.RunCouponService(cmd.Context())
			},
		},
	}
	rootCmd.AddCommand(commands...)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
