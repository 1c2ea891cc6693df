package export

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// WriteArchive writes archive as a zip file at outputPath
func WriteArchive(archive *Archive, outputPath string) (err error) {
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close archive file: %w", closeErr)
		}
	}()

	zipWriter := zip.NewWriter(file)

	exportedAt, parseErr := time.Parse(time.RFC3339Nano, archive.Snapshot.ExportedAt)
	if parseErr != nil {
		exportedAt = time.Now()
	}
	if err := addSnapshotToZip(zipWriter, archive.Snapshot, exportedAt); err != nil {
		return fmt.Errorf("failed to add snapshot to zip: %w", err)
	}

	for _, board := range archive.Boards {
		if err := addBoardToZip(zipWriter, board); err != nil {
			return fmt.Errorf("failed to add board %s to zip: %w", board.Filename, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish zip: %w", err)
	}
	return nil
}

// addSnapshotToZip adds the partition JSON to the zip archive
func addSnapshotToZip(zipWriter *zip.Writer, snapshot Snapshot, modified time.Time) error {
	writer, err := zipWriter.CreateHeader(&zip.FileHeader{
		Name:     SnapshotFilename,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("failed to create snapshot file in zip: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// addBoardToZip adds one rendered board with its modification time
func addBoardToZip(zipWriter *zip.Writer, board BoardFile) error {
	writer, err := zipWriter.CreateHeader(&zip.FileHeader{
		Name:     board.Filename,
		Method:   zip.Deflate,
		Modified: board.Modified,
	})
	if err != nil {
		return fmt.Errorf("failed to create board file in zip: %w", err)
	}

	if _, err := writer.Write([]byte(board.Content)); err != nil {
		return fmt.Errorf("failed to write board content: %w", err)
	}
	return nil
}

// ErrNoSnapshot is returned when an archive lacks the partition data
var ErrNoSnapshot = errors.New("archive has no " + SnapshotFilename)

// ReadArchive reads an archive written by WriteArchive
func ReadArchive(archivePath string) (*Archive, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() { _ = reader.Close() }()

	archive := &Archive{
		Filename: filepath.Base(archivePath),
		Boards:   make([]BoardFile, 0),
	}

	found := false
	for _, file := range reader.File {
		content, err := readZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}

		if file.Name == SnapshotFilename {
			if err := json.Unmarshal(content, &archive.Snapshot); err != nil {
				return nil, fmt.Errorf("failed to parse snapshot: %w", err)
			}
			found = true
			continue
		}

		archive.Boards = append(archive.Boards, BoardFile{
			Filename: file.Name,
			Modified: file.Modified,
			Content:  string(content),
		})
	}

	if !found {
		return nil, ErrNoSnapshot
	}
	return archive, nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}
