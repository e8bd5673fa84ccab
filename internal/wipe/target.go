package wipe

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Target открытая цель затирания: блочное устройство или scratch-файл
type Target interface {
	io.Writer
	io.Seeker
	io.Closer
}

// OpenMode флаги открытия цели
type OpenMode struct {
	Truncate  bool
	Create    bool
	Exclusive bool
	Async     bool
}

// Flags переводит режим в флаги open(2)
func (m OpenMode) Flags() int {
	flags := os.O_RDWR

	if m.Truncate {
		flags |= os.O_TRUNC
	}

	if m.Create {
		flags |= os.O_CREATE
	}

	// для блочного устройства O_EXCL без O_CREAT означает монопольное открытие
	if m.Exclusive && !m.Create {
		flags |= os.O_EXCL
	}

	if m.Async {
		flags |= unix.O_ASYNC
	} else {
		flags |= os.O_SYNC
	}

	return flags
}

// Opener открывает цель. Подменяется в тестах для внедрения ошибок.
type Opener interface {
	Open(path string, mode OpenMode) (Target, error)
}

// FileOpener открывает цель через os.OpenFile
type FileOpener struct{}

func (FileOpener) Open(path string, mode OpenMode) (Target, error) {
	f, err := os.OpenFile(path, mode.Flags(), 0o600)
	if err != nil {
		return nil, err
	}

	return f, nil
}
