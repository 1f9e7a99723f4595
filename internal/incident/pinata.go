package incident

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// PinataUploader pins media to IPFS through Pinata's pinFileToIPFS endpoint.
type PinataUploader struct {
	APIURL     string
	GatewayURL string
	JWT        string
	Client     *http.Client
	Now        func() time.Time
}

func NewPinataUploader(apiURL, gatewayURL, jwt string) *PinataUploader {
	return &PinataUploader{
		APIURL:     strings.TrimSuffix(apiURL, "/"),
		GatewayURL: gatewayURL,
		JWT:        jwt,
		Client:     &http.Client{Timeout: 2 * time.Minute},
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

func (p *PinataUploader) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("read media: %w", err)
	}

	meta, _ := json.Marshal(map[string]any{
		"name": name,
		"keyvalues": map[string]string{
			"app":       "right-guard",
			"type":      "incident-recording",
			"timestamp": p.Now().Format(time.RFC3339),
		},
	})
	if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
		return "", err
	}
	if err := mw.WriteField("pinataOptions", `{"cidVersion":0}`); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.APIURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.JWT)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pinata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("pinata upload failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode pinata response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("pinata response missing IpfsHash")
	}
	return p.GatewayURL + out.IpfsHash, nil
}
