// Package pagseguro looks up transactions behind PagSeguro notifications.
package pagseguro

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mdappsolutions/bellasjob-api/internal/metrics"
	"github.com/mdappsolutions/bellasjob-api/internal/models"
)

const notificationsPath = "/v3/transactions/notifications/"

// response bodies above this are not a transaction
const maxBodySize = 1 << 20

var ErrNoTransaction = errors.New("pagseguro: response has no transaction")

// StatusError is returned for any non-2xx answer from the gateway.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pagseguro: unexpected status %d", e.StatusCode)
}

type Config struct {
	BaseURL string
	Email   string
	Token   string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		email:   cfg.Email,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchTransaction exchanges a notification code for the transaction it refers to.
func (c *Client) FetchTransaction(ctx context.Context, notificationCode string) (models.Transaction, error) {
	start := time.Now()
	tx, err := c.fetch(ctx, notificationCode)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.GatewayFetchDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return tx, err
}

func (c *Client) fetch(ctx context.Context, notificationCode string) (models.Transaction, error) {
	q := url.Values{}
	q.Set("email", c.email)
	q.Set("token", c.token)
	u := c.baseURL + notificationsPath + url.PathEscape(notificationCode) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("pagseguro: build request: %w", err)
	}
	req.Header.Set("Accept", "application/xml;charset=ISO-8859-1")

	resp, err := c.http.Do(req)
	if err != nil {
		// the URL carries the token; keep it out of the error text
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return models.Transaction{}, fmt.Errorf("pagseguro: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("pagseguro: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Transaction{}, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return ParseTransaction(body)
}

type xmlTransaction struct {
	XMLName       xml.Name `xml:"transaction"`
	Code          string   `xml:"code"`
	Reference     string   `xml:"reference"`
	Type          string   `xml:"type"`
	Status        string   `xml:"status"`
	Date          string   `xml:"date"`
	LastEventDate string   `xml:"lastEventDate"`
	GrossAmount   string   `xml:"grossAmount"`
	Sender        struct {
		Name  string `xml:"name"`
		Email string `xml:"email"`
	} `xml:"sender"`
}

// ParseTransaction decodes a <transaction> document. Anything else, including
// an empty body or a <errors> document, yields ErrNoTransaction.
func ParseTransaction(body []byte) (models.Transaction, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return models.Transaction{}, ErrNoTransaction
	}

	var x xmlTransaction
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&x); err != nil {
		var unexpected xml.UnmarshalError
		if errors.As(err, &unexpected) || errors.Is(err, io.EOF) {
			return models.Transaction{}, ErrNoTransaction
		}
		return models.Transaction{}, fmt.Errorf("pagseguro: decode xml: %w", err)
	}

	tx := models.Transaction{
		Code:      strings.TrimSpace(x.Code),
		Reference: strings.TrimSpace(x.Reference),
		Type:      strings.TrimSpace(x.Type),
		Status:    models.TransactionStatus(strings.TrimSpace(x.Status)),
		Sender: models.Sender{
			Name:  strings.TrimSpace(x.Sender.Name),
			Email: strings.TrimSpace(x.Sender.Email),
		},
	}
	if tx.Code == "" && tx.Status == "" {
		return models.Transaction{}, ErrNoTransaction
	}

	if s := strings.TrimSpace(x.GrossAmount); s != "" {
		amount, err := decimal.NewFromString(s)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("pagseguro: gross amount %q: %w", s, err)
		}
		tx.GrossAmount = amount
	}
	tx.Date = parseTime(x.Date)
	tx.LastEventDate = parseTime(x.LastEventDate)
	return tx, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// PagSeguro answers in ISO-8859-1; its code points map 1:1 onto the first
// 256 runes, so the conversion to UTF-8 is per byte.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8", "":
		return input, nil
	case "iso-8859-1", "latin1", "latin-1":
		b, err := io.ReadAll(input)
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		sb.Grow(len(b))
		for _, c := range b {
			sb.WriteRune(rune(c))
		}
		return strings.NewReader(sb.String()), nil
	}
	return nil, fmt.Errorf("unsupported charset %q", charset)
}
