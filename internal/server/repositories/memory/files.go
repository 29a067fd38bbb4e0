package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

type FileRepository struct {
	db *DB
}

func NewFileRepository(db *DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, row := range r.db.files {
		if row.f.StorageKey == file.StorageKey {
			return common.NewValidationError(common.FieldFile, common.ReasonDuplicate)
		}
	}
	if _, ok := r.db.files[file.ID]; ok {
		return common.NewValidationError(common.FieldFile, common.ReasonDuplicate)
	}

	file.CreatedAt = r.db.now()
	r.db.files[file.ID] = &fileRow{f: *cloneFile(file), seq: r.db.next()}
	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	row, ok := r.db.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneFile(&row.f), nil
}

// ListByOwner returns the owner's files, newest first.
func (r *FileRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var rows []*fileRow
	for _, row := range r.db.files {
		if row.f.OwnerID == ownerID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	out := make([]*models.File, 0, len(rows))
	for _, row := range rows {
		out = append(out, cloneFile(&row.f))
	}
	return out, nil
}

// Delete removes the file and every share on it.
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.files[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.db.files, id)
	for sid, row := range r.db.shares {
		if row.s.FileID == id {
			delete(r.db.shares, sid)
		}
	}
	return nil
}
