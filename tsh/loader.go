package tsh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrFetch - файл не удалось скачать (таймаут, сеть, не-2xx).
var ErrFetch = errors.New("tournament file fetch error")

// fetchTimeout - бюджет на скачивание файла у турнирного движка.
const fetchTimeout = 25 * time.Second

// Файлы крупных турниров занимают единицы мегабайт; лимит с запасом.
const maxFileSize = 32 << 20

// Loader скачивает и разбирает турнирные файлы.
type Loader struct {
	client *http.Client
}

func NewLoader() *Loader {
	return &Loader{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Load скачивает файл по URL и возвращает типизированное представление
// вместе с канонической JSON-сериализацией всего литерала (она
// сохраняется в tournament_data.data и сравнивается между опросами).
func (l *Loader) Load(ctx context.Context, url string) (*File, json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("%w: unexpected status %d from %s", ErrFetch, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading body: %v", ErrFetch, err)
	}

	return Parse(body)
}

// Parse разбирает сырое содержимое файла (выделено из Load, чтобы
// первоначальный импорт и тесты могли работать с байтами напрямую).
func Parse(body []byte) (*File, json.RawMessage, error) {
	root, err := ParseLiteral(body)
	if err != nil {
		return nil, nil, err
	}
	file, err := DecodeFile(root)
	if err != nil {
		return nil, nil, err
	}
	raw, err := json.Marshal(root)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: serializing parsed data: %v", ErrParse, err)
	}
	return file, raw, nil
}
