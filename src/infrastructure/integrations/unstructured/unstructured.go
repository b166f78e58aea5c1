package unstructured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// UnstructuredService extracts text from binary document formats (PDF and
// friends) through an unstructured-api instance.
type UnstructuredService struct {
	baseURL    string
	httpClient *http.Client
}

type Element struct {
	Type      string   `json:"type"`
	Text      string   `json:"text"`
	ElementID string   `json:"element_id"`
	Metadata  Metadata `json:"metadata"`
}

type Metadata struct {
	Filename   string `json:"filename,omitempty"`
	Filetype   string `json:"filetype,omitempty"`
	PageNumber int    `json:"page_number,omitempty"`
}

func NewUnstructuredService(baseURL string, c *http.Client) *UnstructuredService {
	if c == nil {
		c = http.DefaultClient
	}
	return &UnstructuredService{
		baseURL:    baseURL,
		httpClient: c,
	}
}

// ExtractText converts a binary document to plain text, elements joined by
// blank lines
func (s *UnstructuredService) ExtractText(ctx context.Context, filename string, content []byte) (string, error) {
	elements, err := s.Partition(ctx, filename, content)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(elements))
	for _, el := range elements {
		if el.Text != "" {
			parts = append(parts, el.Text)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

// Partition sends the file to the partition endpoint and returns its elements
func (s *UnstructuredService) Partition(ctx context.Context, filename string, content []byte) ([]Element, error) {
	var requestBody bytes.Buffer
	multipartWriter := multipart.NewWriter(&requestBody)

	fileWriter, err := multipartWriter.CreateFormFile("files", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err = io.Copy(fileWriter, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to write file content: %w", err)
	}

	if err := multipartWriter.WriteField("output_format", "application/json"); err != nil {
		return nil, fmt.Errorf("failed to write output format: %w", err)
	}

	multipartWriter.Close()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/general/v0/general", &requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", multipartWriter.FormDataContentType())

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("extraction service error: %s: %s", resp.Status, string(body))
	}

	var elements []Element
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return elements, nil
}
