package persistence

import (
	"fmt"
	"os"
	"predictor/internal/models"
	"predictor/internal/persistence/interfaces"
	"predictor/internal/providers"

	json "github.com/goccy/go-json"
)

// FileManager writes the client store to a single compressed file and reads
// it back on startup.
type FileManager struct {
	store      *models.ClientStore
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, store *models.ClientStore, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		store:      store,
		logger:     logger,
	}
}

func (f *FileManager) SaveToFile(fileName string) error {
	envelope := models.StoreFile{
		Version: models.StoreFileVersion,
		Entries: f.store.Snapshot(),
	}

	jsonData, err := json.Marshal(envelope)
	if err != nil {
		f.store.MarkDirty()
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		f.store.MarkDirty()
		return err
	}

	if err = writeAtomic(fileName, data); err != nil {
		f.store.MarkDirty()
		return err
	}
	return nil
}

func writeAtomic(fileName string, data []byte) error {
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile restores the store. A missing file is an empty store.
func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", fileName, err)
	}

	var envelope models.StoreFile
	if err = json.Unmarshal(decompressedData, &envelope); err != nil {
		return fmt.Errorf("decode %s: %w", fileName, err)
	}
	if envelope.Version != models.StoreFileVersion {
		return fmt.Errorf("unsupported store file version %d", envelope.Version)
	}

	f.store.Replace(envelope.Entries)
	f.logger.Infof(providers.TypeApp, "Restored %d client store entries from %s", len(envelope.Entries), fileName)
	return nil
}
