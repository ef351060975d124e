package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	gojson "github.com/goccy/go-json"
	"github.com/siegeai/schemagen/apispec"
	"github.com/siegeai/schemagen/listener"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCaptureCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Infer an OpenAPI document from captured HTTP traffic",
		Long: `Reassemble HTTP/1.x traffic from a network device or a pcap file and
print an OpenAPI document describing the JSON bodies seen per operation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, v)
		},
	}

	f := cmd.Flags()
	f.String("device", "", "network device to capture from")
	f.String("filter", "tcp", "BPF filter for live capture")
	f.String("read", "", "read packets from this pcap or pcapng file")
	f.Duration("duration", 0, "stop a live capture after this long")
	f.String("title", "Captured API", "title of the generated document")
	cmd.MarkFlagsMutuallyExclusive("device", "read")
	cmd.MarkFlagsOneRequired("device", "read")

	bindFlags(v, "capture.", f, "device", "filter", "read", "duration", "title")
	return cmd
}

func runCapture(cmd *cobra.Command, v *viper.Viper) error {
	opts, err := builderOptions(cmd, v)
	if err != nil {
		return err
	}

	var source listener.PacketSource
	if path := v.GetString("capture.read"); path != "" {
		fs, err := listener.NewPacketSourceFile(path)
		if err != nil {
			return err
		}
		defer fs.Close()
		source = fs
		slog.Info("reading pcap dump", "file", path)
	} else {
		device, filter := v.GetString("capture.device"), v.GetString("capture.filter")
		source, err = listener.NewPacketSourceLive(device, filter)
		if err != nil {
			return err
		}
		slog.Info("listening", "device", device, "filter", filter)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := v.GetDuration("capture.duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	rec := apispec.NewRecorder(opts...)
	if err := listener.New(source, rec).Run(ctx); err != nil {
		return err
	}

	// ctx may already be done, the document is still wanted
	doc, err := rec.Document(context.WithoutCancel(ctx), v.GetString("capture.title"), "0.0.1")
	if err != nil {
		return fmt.Errorf("render document: %w", err)
	}

	var bs []byte
	if indent := v.GetInt("indent"); indent > 0 {
		bs, err = gojson.MarshalIndent(doc, "", strings.Repeat(" ", indent))
	} else {
		bs, err = gojson.Marshal(doc)
	}
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(append(bs, '\n'))
	return err
}
