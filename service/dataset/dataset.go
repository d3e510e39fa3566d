package dataset

import (
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Pengu1ncc/niuniu-script/service/replay"
	"github.com/gagliardetto/solana-go"
)

// Expected CSV columns. The header row is required; column order is not.
const (
	colPrivateKey  = "private_key"
	colData        = "data"
	colRepeatCount = "repeat_count"
)

// privateKeySize is the length of a raw ed25519 keypair (seed + public key).
const privateKeySize = 64

// Load reads account tasks from a CSV file.
//
// Each row carries a private key as a textual integer array (e.g.
// "[12, 34, ...]"), a base64-encoded transaction template, and a positive
// repeat count. Any malformed row fails the whole load: the replay run
// must not start with a partial dataset.
func Load(path string) ([]replay.AccountTask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	tasks, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	return tasks, nil
}

// Read parses account tasks from CSV content.
func Read(r io.Reader) ([]replay.AccountTask, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colPrivateKey, colData, colRepeatCount} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var tasks []replay.AccountTask
	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		key, err := parsePrivateKey(record[cols[colPrivateKey]])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid private_key: %w", rowNum, err)
		}

		template, err := base64.StdEncoding.DecodeString(strings.TrimSpace(record[cols[colData]]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid base64 data: %w", rowNum, err)
		}
		if len(template) == 0 {
			return nil, fmt.Errorf("row %d: empty transaction data", rowNum)
		}

		repeat, err := strconv.Atoi(strings.TrimSpace(record[cols[colRepeatCount]]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid repeat_count: %w", rowNum, err)
		}
		if repeat < 1 {
			return nil, fmt.Errorf("row %d: repeat_count must be positive, got %d", rowNum, repeat)
		}

		tasks = append(tasks, replay.AccountTask{
			SigningKey:  key,
			Template:    template,
			RepeatCount: repeat,
		})
	}

	return tasks, nil
}

// parsePrivateKey parses a textual integer array ("[1, 2, ...]") into a
// raw ed25519 keypair.
func parsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("expected integer array, got %q", truncate(s, 32))
	}

	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, fmt.Errorf("empty key array")
	}

	parts := strings.Split(inner, ",")
	if len(parts) != privateKeySize {
		return nil, fmt.Errorf("expected %d key bytes, got %d", privateKeySize, len(parts))
	}

	key := make([]byte, privateKeySize)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("byte %d: %w", i, err)
		}
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("byte %d: value %d out of range", i, n)
		}
		key[i] = byte(n)
	}

	return solana.PrivateKey(key), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
