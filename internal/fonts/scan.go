package fonts

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
)

var fontExtensions = map[string]bool{
	".ttf": true,
	".otf": true,
	".ttc": true,
	".otc": true,
}

// sfnt signatures of TrueType, OpenType and collection files.
var signatures = [][]byte{
	{0x00, 0x01, 0x00, 0x00},
	[]byte("OTTO"),
	[]byte("true"),
	[]byte("ttcf"),
}

// scan walks dir and calls found for every font file below it. Hidden
// directories are skipped. scan returns once every callback has completed.
func scan(dir string, log commonlog.Logger, found func(path string)) {
	fileCh := make(chan string, 100)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for path := range fileCh {
			ok, err := hasFontSignature(path)
			if err != nil {
				log.Debugf("read error: %s: %v", path, err)
				continue
			}
			if ok {
				found(path)
			}
		}
	}()

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			log.Debugf("walk error: %v", err)
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if fontExtensions[strings.ToLower(filepath.Ext(path))] {
			fileCh <- path
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		log.Warningf("scanning %s: %v", dir, err)
	}

	close(fileCh)
	wg.Wait()
}

func hasFontSignature(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 4)
	if _, err := io.ReadFull(f, head); err != nil {
		return false, nil
	}
	for _, sig := range signatures {
		if bytes.Equal(head, sig) {
			return true, nil
		}
	}
	return false, nil
}
