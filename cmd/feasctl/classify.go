package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sourcing-backend/internal/classifications"
	"sourcing-backend/internal/customization"
	"sourcing-backend/internal/requests"
	"sourcing-backend/internal/visualization"
)

type classifyResult struct {
	Request        customization.ProductRequestJSON `json:"request"`
	Classification customization.Classification     `json:"classification"`
	Quote          *classifications.Quote            `json:"quote,omitempty"`
}

func newClassifyCmd() *cobra.Command {
	var (
		file      string
		withQuote bool
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a product request file",
		Long: `Classify reads a product request (JSON or YAML) and prints the
customization level, constraints, warnings, score and alternatives.

Example:
  feasctl classify -f request.json
  feasctl classify -f request.yaml --quote -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			req, err := loadRequest(file)
			if err != nil {
				return err
			}
			normalized, err := requests.Normalize(req)
			if err != nil {
				return fmt.Errorf("invalid request: %w", err)
			}

			cls := customization.Classify(normalized, nil)
			out := classifyResult{Request: normalized, Classification: cls}
			if withQuote {
				concept := (&visualization.Generator{}).DefaultConcept(normalized)
				q := classifications.BuildQuote(req.ID, normalized, concept, cls)
				out.Quote = &q
			}
			return writeValue(cmd.OutOrStdout(), format, out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "request file (.json, .yaml, .yml)")
	cmd.Flags().BoolVar(&withQuote, "quote", false, "include an indicative quote")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func loadRequest(path string) (requests.ProductRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return requests.ProductRequest{}, fmt.Errorf("read request: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var generic map[string]any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return requests.ProductRequest{}, fmt.Errorf("decode yaml request: %w", err)
		}
		if data, err = json.Marshal(generic); err != nil {
			return requests.ProductRequest{}, fmt.Errorf("convert yaml request: %w", err)
		}
	}

	var req requests.ProductRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return requests.ProductRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}
