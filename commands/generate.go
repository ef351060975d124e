package commands

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/siegeai/schemagen/apispec"
	"github.com/siegeai/schemagen/infer"
	"github.com/siegeai/schemagen/integrations/schemaserver"
	"github.com/siegeai/schemagen/jsonschema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func addGenerateFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.Flags()
	f.StringP("delimiter", "d", "", "document delimiter: a literal, newline, tab or space; empty detects '}{' boundaries")
	f.StringArrayP("schema", "s", nil, "schema file to merge in before any objects (repeatable)")
	f.String("input-format", "json", "input document format (json, yaml)")
	f.String("output-format", "json", "output format (json, yaml, openapi)")
	f.Int("jobs", 1, "number of object files to process in parallel")
	f.String("push", "", "also push the result to the schema server at this URL")
	f.String("name", "", "schema name used by --push and --output-format openapi")
	f.String("api-key", "", "bearer key for --push")

	bindFlags(v, "", f, "delimiter", "input-format", "output-format", "jobs", "push", "name", "api-key")
}

func runGenerate(cmd *cobra.Command, v *viper.Viper, args []string) error {
	schemaFiles, _ := cmd.Flags().GetStringArray("schema")

	var objects []infer.Input
	for _, a := range args {
		if a == "-" {
			objects = append(objects, infer.ReaderInput("<stdin>", cmd.InOrStdin()))
		} else {
			objects = append(objects, infer.FileInput(a))
		}
	}
	if len(objects) == 0 && !isTerminal(cmd.InOrStdin()) {
		objects = append(objects, infer.ReaderInput("<stdin>", cmd.InOrStdin()))
	}
	if len(objects) == 0 && len(schemaFiles) == 0 {
		cmd.Usage()
		return errNothingToDo
	}

	decode, err := decodeOptions(v)
	if err != nil {
		return err
	}
	opts, err := builderOptions(cmd, v)
	if err != nil {
		return err
	}

	job := infer.Job{
		NewBuilder: func() (*jsonschema.Builder, error) { return jsonschema.New(opts...) },
		Decode:     decode,
		Objects:    objects,
		Jobs:       v.GetInt("jobs"),
	}
	for _, s := range schemaFiles {
		job.Schemas = append(job.Schemas, infer.FileInput(s))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := job.Run(ctx)
	if err != nil {
		return err
	}
	for _, w := range b.Warnings() {
		slog.Debug("schema warning", "code", w.Code, "keyword", w.Keyword, "msg", w.Message)
	}

	if url := v.GetString("push"); url != "" {
		if err := push(ctx, v, url, b); err != nil {
			return err
		}
	}

	out, err := render(b, v.GetString("output_format"), v.GetString("name"), v.GetInt("indent"))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func decodeOptions(v *viper.Viper) (infer.DecodeOptions, error) {
	opts := infer.DecodeOptions{Delimiter: v.GetString("delimiter")}
	switch f := infer.Format(v.GetString("input_format")); f {
	case infer.FormatJSON, infer.FormatYAML:
		opts.Format = f
	default:
		return opts, fmt.Errorf("unknown input format %q", f)
	}
	return opts, nil
}

func push(ctx context.Context, v *viper.Viper, url string, b *jsonschema.Builder) error {
	name := v.GetString("name")
	if name == "" {
		return fmt.Errorf("--push requires --name")
	}
	c := schemaserver.NewClient(v.GetString("api_key"), url)
	if _, err := c.PushSchema(ctx, name, b.ToSchema()); err != nil {
		return fmt.Errorf("push %s: %w", name, err)
	}
	slog.Info("pushed schema", "server", url, "name", name)
	return nil
}

func render(b *jsonschema.Builder, format, name string, indent int) ([]byte, error) {
	switch format {
	case "json":
		bs, err := b.ToJSON(indent)
		if err != nil {
			return nil, err
		}
		return append(bs, '\n'), nil

	case "yaml":
		return toYAML(b.ToSchema(), indent)

	case "openapi":
		if name == "" {
			name = "Schema"
		}
		doc, err := apispec.Document(name, "0.0.1", map[string]jsonschema.Schema{name: b.ToSchema()})
		if err != nil {
			return nil, err
		}
		var bs []byte
		if indent > 0 {
			bs, err = gojson.MarshalIndent(doc, "", strings.Repeat(" ", indent))
		} else {
			bs, err = gojson.Marshal(doc)
		}
		if err != nil {
			return nil, err
		}
		return append(bs, '\n'), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// toYAML goes through JSON so numbers keep their JSON spelling.
func toYAML(s jsonschema.Schema, indent int) ([]byte, error) {
	bs, err := gojson.Marshal(s)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(bs, &node); err != nil {
		return nil, err
	}
	plain(&node)
	if indent <= 0 {
		indent = 2
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(&node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// plain drops the flow and quoting styles the JSON input carried.
func plain(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		plain(c)
	}
}
