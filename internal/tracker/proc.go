package tracker

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// procRoot is where the process table is read from.
const procRoot = "/proc"

// ListProcesses returns the names of all running processes from
// /proc/<pid>/comm. Processes that exit while being read are skipped.
func ListProcesses() (map[string]struct{}, error) {
	return listProcesses(procRoot)
}

func listProcesses(root string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	names := make(map[string]struct{})
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(entry.Name()); err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, entry.Name(), "comm"))
		if err != nil {
			continue
		}
		if name := strings.TrimSpace(string(data)); name != "" {
			names[name] = struct{}{}
		}
	}
	return names, nil
}
