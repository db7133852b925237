package gdrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dfryer1193/journal/blog/domain"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const jsonMimeType = "application/json"

// fileService is the part of the Drive API the adapter uses.
type fileService interface {
	FindByName(ctx context.Context, name string) (string, bool, error)
	Download(ctx context.Context, id string) ([]byte, error)
	Create(ctx context.Context, name string, content []byte) error
	Update(ctx context.Context, id string, content []byte) error
}

// driveFiles implements fileService on drive/v3.
type driveFiles struct {
	svc *drive.Service
}

func (d *driveFiles) FindByName(ctx context.Context, name string) (string, bool, error) {
	q := fmt.Sprintf("name='%s' and trashed=false", strings.ReplaceAll(name, "'", `\'`))
	list, err := d.svc.Files.List().
		Q(q).
		Spaces("drive").
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return "", false, handleDriveError("listing files", err)
	}
	if len(list.Files) == 0 {
		return "", false, nil
	}
	return list.Files[0].Id, true, nil
}

func (d *driveFiles) Download(ctx context.Context, id string) ([]byte, error) {
	op := fmt.Sprintf("downloading file %s", id)
	resp, err := d.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, handleDriveError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, handleDriveError(op, err)
	}
	return raw, nil
}

func (d *driveFiles) Create(ctx context.Context, name string, content []byte) error {
	_, err := d.svc.Files.Create(&drive.File{Name: name, MimeType: jsonMimeType}).
		Media(bytes.NewReader(content), googleapi.ContentType(jsonMimeType)).
		Context(ctx).
		Do()
	return handleDriveError(fmt.Sprintf("creating file %s", name), err)
}

func (d *driveFiles) Update(ctx context.Context, id string, content []byte) error {
	_, err := d.svc.Files.Update(id, &drive.File{}).
		Media(bytes.NewReader(content), googleapi.ContentType(jsonMimeType)).
		Context(ctx).
		Do()
	return handleDriveError(fmt.Sprintf("updating file %s", id), err)
}

// handleDriveError classifies a Drive API failure as domain.ErrRemoteAuth or
// domain.ErrRemoteSync.
func handleDriveError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrRemoteAuth) {
		return fmt.Errorf("drive: %s failed: %w", op, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		kind := domain.ErrRemoteSync
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = domain.ErrRemoteAuth
		}
		return fmt.Errorf("%w: drive: %s failed with status %d: %s", kind, op, apiErr.Code, apiErr.Message)
	}

	return fmt.Errorf("%w: drive: %s failed: %w", domain.ErrRemoteSync, op, err)
}
