package fotosida

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/facette/natsort"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

func hidden(name string) bool {
	return name == "" || name[0] == '.'
}

func isJPEG(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return true
	}
	return false
}

// listGalleries returns the gallery folders directly under root, skipping exclude.
// Folders are returned in natural order rather than raw directory order so that
// repeated builds of the same tree produce the same index.
func listGalleries(root string, exclude string) ([]string, error) {
	des, err := godirwalk.ReadDirents(root, nil)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	found := []string{}
	for _, de := range des {
		if hidden(de.Name()) {
			continue
		}
		path := filepath.Join(root, de.Name())
		isDir, err := de.IsDirOrSymlinkToDir()
		if err != nil {
			klog.Warningf("stat %s: %v", path, err)
			continue
		}
		if !isDir {
			continue
		}
		if exclude != "" && sameDir(path, exclude) {
			klog.Infof("skipping %s: it is the output directory", path)
			continue
		}
		found = append(found, path)
	}

	sort.Slice(found, func(i, j int) bool { return natsort.Compare(found[i], found[j]) })
	return found, nil
}

// listPhotos returns the JPEG file names directly inside dir.
func listPhotos(dir string) ([]string, error) {
	des, err := godirwalk.ReadDirents(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	found := []string{}
	for _, de := range des {
		name := de.Name()
		if hidden(name) || !isJPEG(name) {
			continue
		}
		isDir, err := de.IsDirOrSymlinkToDir()
		if err != nil {
			klog.Warningf("stat %s: %v", filepath.Join(dir, name), err)
			continue
		}
		if isDir {
			continue
		}
		klog.V(1).Infof("found %s", filepath.Join(dir, name))
		found = append(found, name)
	}

	sort.Slice(found, func(i, j int) bool { return natsort.Compare(found[i], found[j]) })
	return found, nil
}

func sameDir(a, b string) bool {
	aa, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	ab, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return aa == ab
}
