// Package tesseract runs OCR through libtesseract.
package tesseract

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// DefaultWhitelist limits recognition to the characters found on invoices,
// receipts and forms.
const DefaultWhitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz:/-.,"

type Config struct {
	TessdataPrefix string
	Language       string
	Whitelist      string
	Size           int
}

// engine is the part of *gosseract.Client the pool drives.
type engine interface {
	SetImage(imagePath string) error
	Text() (string, error)
	Close() error
}

// Pool owns a fixed set of engine clients created at startup. A client is
// used by one recognition at a time.
type Pool struct {
	clients chan engine

	closeOnce sync.Once
}

func NewPool(cfg Config) (*Pool, error) {
	size := cfg.Size
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Whitelist == "" {
		cfg.Whitelist = DefaultWhitelist
	}

	engines := make([]engine, 0, size)
	for i := 0; i < size; i++ {
		client, err := newClient(cfg)
		if err != nil {
			for _, e := range engines {
				_ = e.Close()
			}
			return nil, err
		}
		engines = append(engines, client)
	}
	return newPool(engines), nil
}

func newPool(engines []engine) *Pool {
	p := &Pool{clients: make(chan engine, len(engines))}
	for _, e := range engines {
		p.clients <- e
	}
	return p
}

func newClient(cfg Config) (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(cfg.Language); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set language %q: %w", cfg.Language, err)
	}
	if err := client.SetWhitelist(cfg.Whitelist); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set whitelist: %w", err)
	}
	return client, nil
}

// Recognize returns the trimmed text found in the image file. Waiting for a
// free client and the recognition itself both honour ctx; a cancelled call
// returns at once and the client rejoins the pool when the engine finishes.
// libtesseract cannot be interrupted, so an abandoned recognition keeps its
// client checked out until then.
func (p *Pool) Recognize(ctx context.Context, imagePath string) (string, error) {
	var client engine
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case c, ok := <-p.clients:
		if !ok {
			return "", errors.New("recognizer pool closed")
		}
		client = c
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer p.put(client)
		text, err := recognize(client, imagePath)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.text, res.err
	}
}

func recognize(client engine, imagePath string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("tesseract panic: %v", rec)
		}
	}()

	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err = client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (p *Pool) put(client engine) {
	defer func() {
		// pool closed while the engine was running
		if recover() != nil {
			_ = client.Close()
		}
	}()
	p.clients <- client
}

// Close releases every engine client. Recognitions still running close their
// client when they finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.clients)
		for c := range p.clients {
			_ = c.Close()
		}
	})
}
