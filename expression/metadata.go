package expression

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadMetadata scans comma-separated "id,group,..." lines and returns the ids
// whose group is listed in pos and in neg. An id whose group is in both lists
// is returned in both.
func ReadMetadata(path string, pos, neg []string) (posIDs, negIDs []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	posSet, negSet := toSet(pos), toSet(neg)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		items := strings.Split(line, ",")
		if len(items) < 2 {
			return nil, nil, fmt.Errorf("%s:%d: expected id,group", path, lineNo)
		}
		id, group := strings.TrimSpace(items[0]), strings.TrimSpace(items[1])
		if posSet[group] {
			posIDs = append(posIDs, id)
		}
		if negSet[group] {
			negIDs = append(negIDs, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return posIDs, negIDs, nil
}

// ReadMarkers returns the gene names of a marker file: the header line is
// skipped and the first whitespace-separated field of every other line is
// taken with its surrounding quotes removed.
func ReadMarkers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var genes []string
	scanner := bufio.NewScanner(f)
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		genes = append(genes, strings.Trim(fields[0], `"'`))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return genes, nil
}

// SplitList splits a comma-separated flag value, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
