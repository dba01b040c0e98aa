package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"lyricsync-api-go/logcolors"
	"lyricsync-api-go/utils"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "client_state"

var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrInvalidBackup  = errors.New("invalid backup file name")
	ErrBackupNotFound = errors.New("backup file not found")
)

// PersistentStore is the server-side stand-in for a player's local storage:
// small string values (offsets, preferences) in BoltDB, mirrored in memory.
type PersistentStore struct {
	db                 *bolt.DB
	mu                 sync.RWMutex // guards db while it is swapped by backup/restore
	writeMu            sync.Mutex   // orders disk writes with their memCache updates
	memCache           sync.Map
	dbPath             string
	backupPath         string
	compressionEnabled bool
}

// Entry is the on-disk representation of a stored value (possibly compressed)
type Entry struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPersistentStore opens (or creates) the store at dbPath
func NewPersistentStore(dbPath string, backupPath string, compressionEnabled bool) (*PersistentStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	if info, err := os.Stat(dbPath); err == nil {
		log.Infof("%s Found existing database file at: %s (size: %d bytes)", logcolors.LogStoreInit, dbPath, info.Size())
	} else {
		log.Infof("%s Creating new database file at: %s", logcolors.LogStoreInit, dbPath)
	}

	ps := &PersistentStore{
		dbPath:             dbPath,
		backupPath:         backupPath,
		compressionEnabled: compressionEnabled,
	}
	if err := ps.open(); err != nil {
		return nil, err
	}

	log.Infof("%s Persistent store initialized at %s (compression: %v)", logcolors.LogStore, dbPath, compressionEnabled)
	return ps, nil
}

// open opens the database file, ensures the bucket and reloads the memory mirror
func (ps *PersistentStore) open() error {
	db, err := bolt.Open(ps.dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("open store database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("create store bucket: %w", err)
	}

	ps.db = db
	if err := ps.loadToMemory(); err != nil {
		log.Warnf("%s Failed to preload store to memory: %v", logcolors.LogStore, err)
	}
	return nil
}

// loadToMemory replaces the memory mirror with the bucket contents
func (ps *PersistentStore) loadToMemory() error {
	ps.memCache.Range(func(k, _ interface{}) bool {
		ps.memCache.Delete(k)
		return true
	})

	count := 0
	err := ps.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				log.Warnf("%s Skipping unreadable entry for key %s: %v", logcolors.LogStore, string(k), err)
				return nil
			}
			ps.memCache.Store(string(k), entry)
			count++
			return nil
		})
	})
	if err != nil {
		return err
	}

	log.Infof("%s Loaded %d entries from disk to memory", logcolors.LogStore, count)
	return nil
}

// Get returns the stored value for key. Values that cannot be decoded read as absent.
func (ps *PersistentStore) Get(key string) (string, bool) {
	v, ok := ps.memCache.Load(key)
	if !ok {
		return "", false
	}
	return ps.decode(key, v.(Entry).Value)
}

// decode unwraps compressed values. Plain values always read back, so toggling
// compression never strands existing keys.
func (ps *PersistentStore) decode(key, value string) (string, bool) {
	decompressed, err := utils.DecompressValue(value)
	if err != nil {
		log.Errorf("%s Error decompressing value for key %s: %v", logcolors.LogStore, key, err)
		return "", false
	}
	return decompressed, true
}

// encode wraps value in an Entry, compressing it when enabled
func (ps *PersistentStore) encode(key, value string) (Entry, []byte, error) {
	stored := value
	if ps.compressionEnabled {
		compressed, err := utils.CompressValue(value)
		if err != nil {
			return Entry{}, nil, fmt.Errorf("compress value for %s: %w", key, err)
		}
		stored = compressed
	}

	entry := Entry{Value: stored, UpdatedAt: time.Now().UTC()}
	data, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, nil, fmt.Errorf("marshal entry for %s: %w", key, err)
	}
	return entry, data, nil
}

// Set writes value to disk first and then to the memory mirror
func (ps *PersistentStore) Set(key, value string) error {
	return ps.Update(key, func(string, bool) (string, error) {
		return value, nil
	})
}

// Update reads the current value of key, applies fn and writes the result in
// one transaction. Concurrent updates of the same key never lose a write.
// An error from fn aborts the update and is returned as is.
func (ps *PersistentStore) Update(key string, fn func(old string, ok bool) (string, error)) error {
	ps.writeMu.Lock()
	defer ps.writeMu.Unlock()
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var entry Entry
	err := ps.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return ErrBucketNotFound
		}

		old, ok := "", false
		if raw := b.Get([]byte(key)); raw != nil {
			var current Entry
			if err := json.Unmarshal(raw, &current); err == nil {
				old, ok = ps.decode(key, current.Value)
			}
		}

		value, err := fn(old, ok)
		if err != nil {
			return err
		}
		var data []byte
		entry, data, err = ps.encode(key, value)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	ps.memCache.Store(key, entry)
	return nil
}

// Delete removes a key; deleting a missing key is not an error
func (ps *PersistentStore) Delete(key string) error {
	ps.writeMu.Lock()
	defer ps.writeMu.Unlock()
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	err := ps.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return ErrBucketNotFound
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	ps.memCache.Delete(key)
	return nil
}

// Keys lists every key with the given prefix in byte order
func (ps *PersistentStore) Keys(prefix string) []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var keys []string
	err := ps.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return ErrBucketNotFound
		}
		p := []byte(prefix)
		c := b.Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		log.Warnf("%s Failed to list keys with prefix %q: %v", logcolors.LogStore, prefix, err)
	}
	return keys
}

// Clear removes all entries
func (ps *PersistentStore) Clear() error {
	ps.writeMu.Lock()
	defer ps.writeMu.Unlock()
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	err := ps.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
	if err != nil {
		return fmt.Errorf("clear store: %w", err)
	}

	ps.memCache.Range(func(k, _ interface{}) bool {
		ps.memCache.Delete(k)
		return true
	})
	return nil
}

// Stats returns the number of keys and the approximate stored size in KB
func (ps *PersistentStore) Stats() (numKeys int, sizeInKB int) {
	size := 0
	ps.memCache.Range(func(k, v interface{}) bool {
		numKeys++
		size += len(k.(string)) + len(v.(Entry).Value)
		return true
	})
	return numKeys, size / 1024
}

// Backup copies the database file into the backup directory and returns its path.
// The copy is taken inside a read transaction, so the database stays open.
func (ps *PersistentStore) Backup() (string, error) {
	fileName := fmt.Sprintf("store_backup_%s.db", time.Now().Format("2006-01-02_15-04-05.000"))
	backupFilePath := filepath.Join(ps.backupPath, fileName)

	ps.mu.RLock()
	defer ps.mu.RUnlock()

	err := ps.db.View(func(tx *bolt.Tx) error {
		return tx.CopyFile(backupFilePath, 0600)
	})
	if err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	log.Infof("%s Backup created: %s", logcolors.LogStoreBackup, backupFilePath)
	return backupFilePath, nil
}

// BackupInfo contains metadata about a backup file
type BackupInfo struct {
	FileName  string    `json:"fileName"`
	Size      int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListBackups returns all backups, newest first
func (ps *PersistentStore) ListBackups() ([]BackupInfo, error) {
	backups := []BackupInfo{}

	entries, err := os.ReadDir(ps.backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return backups, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".db" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Warnf("%s Failed to stat %s: %v", logcolors.LogStoreBackup, entry.Name(), err)
			continue
		}
		backups = append(backups, BackupInfo{
			FileName:  entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// RestoreFromBackup replaces the live database with a backup file.
// The current file is kept as .pre-restore until the swap succeeds.
func (ps *PersistentStore) RestoreFromBackup(backupFileName string) error {
	if filepath.Base(backupFileName) != backupFileName || filepath.Ext(backupFileName) != ".db" {
		return fmt.Errorf("%w: %s", ErrInvalidBackup, backupFileName)
	}
	backupFilePath := filepath.Join(ps.backupPath, backupFileName)
	if _, err := os.Stat(backupFilePath); err != nil {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, backupFileName)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	log.Infof("%s Restoring from backup: %s", logcolors.LogStoreRestore, backupFileName)

	if err := ps.db.Close(); err != nil {
		return fmt.Errorf("close current database: %w", err)
	}

	preRestore := ps.dbPath + ".pre-restore"
	if err := copyFile(ps.dbPath, preRestore); err != nil {
		ps.reopen()
		return fmt.Errorf("save current database: %w", err)
	}

	if err := copyFile(backupFilePath, ps.dbPath); err != nil {
		copyFile(preRestore, ps.dbPath)
		ps.reopen()
		return fmt.Errorf("copy backup into place: %w", err)
	}
	os.Remove(preRestore)

	if err := ps.open(); err != nil {
		return fmt.Errorf("reopen database after restore: %w", err)
	}

	log.Infof("%s Restored from backup: %s", logcolors.LogStoreRestore, backupFileName)
	return nil
}

func (ps *PersistentStore) reopen() {
	if err := ps.open(); err != nil {
		log.Errorf("%s Failed to reopen database: %v", logcolors.LogStore, err)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// Close closes the database
func (ps *PersistentStore) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}
