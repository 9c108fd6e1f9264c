package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/spaghettifunk/anima/engine/archive"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type ArchiveInfo struct {
	Path       string
	ID         uuid.UUID
	LastLoaded time.Time
}

/**
 * @brief Keeps pipeline archives open for one device type and reopens an archive
 * whenever its file is written. A reopened archive starts with empty resource
 * caches; callers fetch it again with Get after receiving its path on Reloads.
 * The archive it replaces is closed at that point: objects already unpacked from
 * it stay valid, but any further unpack from it fails.
 */
type ArchiveManager struct {
	device  metadata.DeviceType
	options archive.Options

	archives map[string]*archive.Archive
	infos    map[string]ArchiveInfo
	mutex    sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	reloads  chan string
}

func NewArchiveManager(device metadata.DeviceType, options archive.Options) (*ArchiveManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &ArchiveManager{
		device:   device,
		options:  options,
		archives: make(map[string]*archive.Archive),
		infos:    make(map[string]ArchiveInfo),
		fsnotify: fsWatch,
		reloads:  make(chan string, 16),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go am.start()
	return am, nil
}

// Open opens the archive at path and starts watching it. Opening a path twice
// returns the archive that is already open.
func (am *ArchiveManager) Open(path string) (*archive.Archive, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	if am.isClosed {
		return nil, errors.New("archive manager already closed")
	}
	if a, ok := am.archives[abs]; ok {
		return a, nil
	}

	a, err := archive.OpenFile(abs, am.device, am.options)
	if err != nil {
		return nil, err
	}
	// editors and build tools often replace the file, so the directory is watched
	if err := am.fsnotify.Add(filepath.Dir(abs)); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to watch archive '%s': %w", abs, err)
	}
	am.track(abs, a)
	core.LogInfo("opened pipeline archive '%s' for %s", abs, am.device)
	return a, nil
}

// Get returns the current archive for path.
func (am *ArchiveManager) Get(path string) (*archive.Archive, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	a, ok := am.archives[abs]
	return a, ok
}

func (am *ArchiveManager) Info(path string) (ArchiveInfo, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ArchiveInfo{}, false
	}
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.infos[abs]
	return info, ok
}

// Reloads delivers the absolute path of every archive that was reopened.
// Notifications are dropped while the channel is full. By the time a path is
// delivered the previous *archive.Archive for it has been closed, so holders of
// that pointer must call Get again before unpacking anything else.
func (am *ArchiveManager) Reloads() <-chan string {
	return am.reloads
}

func (am *ArchiveManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	<-am.stopped

	am.mutex.Lock()
	defer am.mutex.Unlock()
	var errs []error
	for path, a := range am.archives {
		if err := a.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close archive '%s': %w", path, err))
		}
	}
	clear(am.archives)
	clear(am.infos)
	return errors.Join(errs...)
}

func (am *ArchiveManager) track(path string, a *archive.Archive) {
	am.archives[path] = a
	am.infos[path] = ArchiveInfo{Path: path, ID: a.ID(), LastLoaded: time.Now()}
}

func (am *ArchiveManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// handleFileEvent reopens a tracked archive and closes the one it replaces. A
// file that does not parse, for instance one that is still being written, keeps
// the previous archive.
func (am *ArchiveManager) handleFileEvent(name string) {
	path, err := filepath.Abs(name)
	if err != nil {
		return
	}

	am.mutex.RLock()
	_, tracked := am.archives[path]
	am.mutex.RUnlock()
	if !tracked {
		return
	}

	a, err := archive.OpenFile(path, am.device, am.options)
	if err != nil {
		core.LogWarn("keeping previous archive '%s': %s", path, err)
		return
	}

	am.mutex.Lock()
	old, tracked := am.archives[path]
	if !tracked || am.isClosed {
		am.mutex.Unlock()
		a.Close()
		return
	}
	am.track(path, a)
	am.mutex.Unlock()

	if err := old.Close(); err != nil {
		core.LogWarn("failed to close previous archive '%s': %s", path, err)
	}
	core.LogInfo("reloaded pipeline archive '%s' (%s)", path, a.ID())

	select {
	case am.reloads <- path:
	default:
	}
}
