package main

import (
	"context"

	"github.com/jingkaihe/pluginkit/pkg/telemetry"
	"github.com/jingkaihe/pluginkit/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// initTracing initializes the OpenTelemetry tracing system
func initTracing(ctx context.Context) (func(context.Context) error, error) {
	return telemetry.InitTracer(ctx, telemetry.Config{
		Enabled:        viper.GetBool("tracing.enabled"),
		ServiceName:    "pluginkit",
		ServiceVersion: version.Get().Version,
		SamplerType:    viper.GetString("tracing.sampler"),
		SamplerRatio:   viper.GetFloat64("tracing.ratio"),
	})
}

var tracer = telemetry.Tracer("pluginkit.cli")

// withTracing wraps a command's Run in a cli.command span. The span is marked
// as failed when the command sets a non-zero exit code.
func withTracing(cmd *cobra.Command) *cobra.Command {
	originalRun := cmd.Run

	cmd.Run = func(cmd *cobra.Command, args []string) {
		attrs := []attribute.KeyValue{
			attribute.String("command.name", cmd.Name()),
			attribute.String("command.path", cmd.CommandPath()),
			attribute.Int("args.count", len(args)),
		}
		cmd.Flags().Visit(func(flag *pflag.Flag) {
			attrs = append(attrs, attribute.String("flag."+flag.Name, flag.Value.String()))
		})

		ctx, span := tracer.Start(cmd.Context(), "cli.command", trace.WithAttributes(attrs...))
		defer span.End()

		cmd.SetContext(ctx)
		originalRun(cmd, args)

		span.SetAttributes(attribute.Int("exit_code", exitCode))
		if exitCode != 0 {
			span.SetStatus(codes.Error, "command failed")
			return
		}
		span.SetStatus(codes.Ok, "")
	}

	return cmd
}

func init() {
	rootCmd.PersistentFlags().Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")
	rootCmd.PersistentFlags().String("tracing-sampler", "ratio", "Tracing sampler type (always, never, ratio)")
	rootCmd.PersistentFlags().Float64("tracing-ratio", 1, "Sampling ratio when using ratio sampler")

	viper.BindPFlag("tracing.enabled", rootCmd.PersistentFlags().Lookup("tracing-enabled"))
	viper.BindPFlag("tracing.sampler", rootCmd.PersistentFlags().Lookup("tracing-sampler"))
	viper.BindPFlag("tracing.ratio", rootCmd.PersistentFlags().Lookup("tracing-ratio"))
}
