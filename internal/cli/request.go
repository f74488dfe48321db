package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/shiksha/pkg/httpclient"
)

var (
	reqData    string
	reqFields  []string
	reqFiles   []string
	reqRaw     string
	reqHeaders []string
)

var requestCmd = &cobra.Command{
	Use:   "request METHOD URL",
	Short: "Send an authenticated request and print the raw response",
	Long: `Send a request carrying the stored credential and print the response body.
The status line goes to stderr.

Examples:
  shiksha request GET http://localhost:8080/api/v1/users/me
  shiksha request POST http://localhost:8080/api/v1/notes --data '{"title":"x"}'
  shiksha request POST http://localhost:8080/upload --file file=./notes.pdf --field kind=pdf
  shiksha request PUT http://localhost:8080/blob --raw ./blob.bin --header "Content-Type: application/octet-stream"`,
	Args: cobra.ExactArgs(2),
	RunE: runRequest,
}

func init() {
	requestCmd.Flags().StringVar(&reqData, "data", "", "JSON body")
	requestCmd.Flags().StringArrayVar(&reqFields, "field", nil, "Multipart field name=value (repeatable)")
	requestCmd.Flags().StringArrayVar(&reqFiles, "file", nil, "Multipart file field=path (repeatable)")
	requestCmd.Flags().StringVar(&reqRaw, "raw", "", "Send a file unmodified ('-' for stdin)")
	requestCmd.Flags().StringArrayVarP(&reqHeaders, "header", "H", nil, "Extra header 'Name: value' (repeatable)")
	requestCmd.MarkFlagsMutuallyExclusive("data", "raw", "field")
	requestCmd.MarkFlagsMutuallyExclusive("data", "raw", "file")
	rootCmd.AddCommand(requestCmd)
}

func runRequest(cmd *cobra.Command, args []string) error {
	headers, err := parseHeaders(reqHeaders)
	if err != nil {
		return err
	}

	body, closeBody, err := requestBody(cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer closeBody()

	resp, err := rt.Client().Do(cmd.Context(), httpclient.Request{
		Method:  args[0],
		URL:     args[1],
		Body:    body,
		Headers: headers,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "HTTP %d\n", resp.StatusCode())
	_, err = cmd.OutOrStdout().Write(resp.Body())
	return err
}

func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q (want 'Name: value')", h)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}

// requestBody builds the body from flags. The returned func closes opened files.
func requestBody(stdin io.Reader) (httpclient.Body, func(), error) {
	noop := func() {}
	switch {
	case reqData != "":
		if !json.Valid([]byte(reqData)) {
			return nil, noop, errors.New("--data is not valid JSON")
		}
		return httpclient.JSON(json.RawMessage(reqData)), noop, nil

	case reqRaw == "-":
		return httpclient.Raw(stdin), noop, nil

	case reqRaw != "":
		f, err := os.Open(reqRaw)
		if err != nil {
			return nil, noop, fmt.Errorf("open raw body: %w", err)
		}
		return httpclient.Raw(f), func() { f.Close() }, nil

	case len(reqFields) > 0 || len(reqFiles) > 0:
		return formBody(reqFields, reqFiles)
	}
	return nil, noop, nil
}

func formBody(fields, files []string) (httpclient.Body, func(), error) {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		name, value, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, func() {}, fmt.Errorf("invalid field %q (want name=value)", f)
		}
		values[strings.TrimSpace(name)] = value
	}

	var opened []*os.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	parts := make([]httpclient.FormFile, 0, len(files))
	for _, entry := range files {
		field, path, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(field) == "" || path == "" {
			closeAll()
			return nil, func() {}, fmt.Errorf("invalid file %q (want field=path)", entry)
		}
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open form file: %w", err)
		}
		opened = append(opened, f)
		parts = append(parts, httpclient.FormFile{
			Field:  strings.TrimSpace(field),
			Name:   filepath.Base(path),
			Reader: f,
		})
	}
	return httpclient.Form(values, parts...), closeAll, nil
}
