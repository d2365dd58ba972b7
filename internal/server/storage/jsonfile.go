package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/filex"
	"github.com/dmitrijs2005/here/internal/models"
)

const storeFilePerm = 0o600

type jsonFile struct {
	path string
}

func openJSONFile(path string) (*jsonFile, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty store path", common.ErrStoreIO)
	}
	ok, err := filex.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	if !ok {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrStoreIO, err)
		}
		if err := filex.WriteFileAtomic(path, []byte("[]\n"), storeFilePerm); err != nil {
			return nil, fmt.Errorf("%w: create %s: %v", common.ErrStoreIO, path, err)
		}
	}
	return &jsonFile{path: path}, nil
}

func (f *jsonFile) load(context.Context) ([]models.Lease, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	leases := []models.Lease{}
	if len(bytes.TrimSpace(data)) == 0 {
		return leases, nil
	}
	if err := json.Unmarshal(data, &leases); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", common.ErrStoreIO, f.path, err)
	}
	return leases, nil
}

func (f *jsonFile) save(_ context.Context, leases []models.Lease) error {
	if leases == nil {
		leases = []models.Lease{}
	}
	data, err := json.MarshalIndent(leases, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", common.ErrStoreIO, err)
	}
	data = append(data, '\n')
	if err := filex.WriteFileAtomic(f.path, data, storeFilePerm); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	return nil
}

func (f *jsonFile) close() error { return nil }
