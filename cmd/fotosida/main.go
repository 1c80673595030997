// fotosida builds a static photo gallery site from a directory of gallery folders.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"k8s.io/klog/v2"

	"github.com/tstromberg/fotosida/pkg/fotosida"
)

func main() {
	klog.InitFlags(nil)

	c, err := fotosida.LoadConfig()
	if err != nil {
		klog.Exitf("config: %v", err)
	}

	flag.StringVar(&c.InDir, "in", c.InDir, "Location of input directory")
	flag.StringVar(&c.OutDir, "out", c.OutDir, "Location of output directory (cleared on every build)")
	flag.IntVar(&c.MaxSize, "max", c.MaxSize, "Longest side of full-size images, in pixels")
	flag.IntVar(&c.ThumbSize, "thumb", c.ThumbSize, "Longest side of gallery thumbnails, in pixels")
	flag.IntVar(&c.Quality, "quality", c.Quality, "JPEG quality for resized images")
	flag.IntVar(&c.CompressQuality, "compress-quality", c.CompressQuality, "JPEG quality for an optional second recompression pass (0 disables it)")
	flag.StringVar(&c.Title, "title", c.Title, "Title of photo collection")
	flag.StringVar(&c.Description, "description", c.Description, "Description of photo collection")
	flag.StringVar(&c.TemplateDir, "templates", c.TemplateDir, "Directory of HTML templates overriding the built-in ones")
	flag.StringVar(&c.AssetsDir, "assets", c.AssetsDir, "Directory of static files copied into the output")
	flag.StringVar(&c.ExifBackend, "exif", c.ExifBackend, "EXIF reader: goexif or exiftool")

	caption := flag.Bool("caption", false, "generate alt text with Gemini (requires GOOGLE_AI_API_KEY)")
	captionModel := flag.String("caption-model", fotosida.DefaultCaptionModel, "Gemini model used for alt text")
	listen := flag.Bool("listen", false, "serve content via HTTP")
	addr := flag.String("addr", "localhost:12800", "host:port to bind to in listen mode")
	watchFlag := flag.Bool("watch", false, "watch for changes to the input directory and rebuild")
	flag.Parse()

	if c.InDir == "" {
		klog.Exitf("--in is a required flag")
	}
	if c.OutDir == "" {
		klog.Exitf("--out is a required flag")
	}

	ctx := context.Background()
	opts := []fotosida.Option{}
	if *caption {
		cp, err := fotosida.NewGeminiCaptioner(ctx, os.Getenv("GOOGLE_AI_API_KEY"), *captionModel)
		if err != nil {
			klog.Exitf("captioner: %v", err)
		}
		opts = append(opts, fotosida.WithCaptioner(cp))
	}

	s, err := fotosida.Build(ctx, c, opts...)
	if err != nil {
		klog.Exitf("build failed: %v", err)
	}

	var wg sync.WaitGroup
	if *watchFlag {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watch(ctx, c, s, opts); err != nil {
				klog.Exitf("watch failed: %v", err)
			}
		}()
	}

	if *listen {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(c.OutDir, *addr)
		}()
	}

	wg.Wait()
}

// serve serves a static web directory via HTTP
func serve(path string, addr string) {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  klog.NewStandardLogger("INFO"),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Handle("/*", http.FileServer(http.Dir(path)))

	klog.Infof("Listening on %s...", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		klog.Exitf("listen failed: %v", err)
	}
}

// watchDirs returns the input directory and every gallery folder in it.
func watchDirs(c *fotosida.Config, s *fotosida.Site) []string {
	dirs := []string{c.InDir}
	for _, g := range s.Galleries {
		dirs = append(dirs, g.InPath)
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

// watch rebuilds the whole site after changes to the input settle.
func watch(ctx context.Context, c *fotosida.Config, s *fotosida.Site, opts []fotosida.Option) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	add := func(s *fotosida.Site) {
		dirs := watchDirs(c, s)
		klog.Infof("watching %d dirs ...", len(dirs))
		for _, d := range dirs {
			if err := w.Add(d); err != nil {
				klog.Errorf("watch %s: %v", d, err)
			}
		}
	}
	add(s)

	const settle = 500 * time.Millisecond
	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			klog.V(1).Infof("event: %s", event)
			if filepath.Base(event.Name)[0] == '.' {
				continue
			}
			timer.Reset(settle)
		case <-timer.C:
			klog.Infof("input changed, rebuilding ...")
			ns, err := fotosida.Build(ctx, c, opts...)
			if err != nil {
				klog.Errorf("rebuild failed: %v", err)
				continue
			}
			add(ns)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}
