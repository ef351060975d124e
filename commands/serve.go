package commands

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/siegeai/schemagen/srv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve named schemas over HTTP",
		Long: `Run a schema registry. Samples and schemas posted to
/schemas/{name}/objects and /schemas/{name}/schemas are merged into the named
schema, which is read back from /schemas/{name}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := builderOptions(cmd, v)
			if err != nil {
				return err
			}
			s, err := srv.New(srv.WithAPIKey(v.GetString("serve.api_key")), srv.WithBuilderOptions(opts...))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			addr := v.GetString("serve.addr")
			slog.Info("listening", "addr", addr)
			return s.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().String("addr", ":8080", "address to listen on")
	cmd.Flags().String("api-key", "", "require this bearer key on /schemas routes")
	bindFlags(v, "serve.", cmd.Flags(), "addr", "api-key")
	return cmd
}
