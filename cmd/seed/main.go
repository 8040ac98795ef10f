// Siembra un workspace de demo: proyecto, clases, bloque, imágenes y un
// par de anotaciones. Pasa por los servicios de entidades, así que todo
// queda también en el changelog y sirve para probar el fan-out de punta a
// punta.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/easelhq/easel/internal/config"
	"github.com/easelhq/easel/internal/entities"
	"github.com/easelhq/easel/internal/observability/logger"
	"github.com/easelhq/easel/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
		userID     = flag.String("user", "seed-user", "user_id dueño de los datos de demo")
	)
	flag.Parse()

	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		if _, err := os.Stat("configs/config.yaml"); err == nil {
			path = "configs/config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	sc := store.Config{DSN: cfg.Storage.DSN}
	sc.Postgres.MaxConns = cfg.Storage.Postgres.MaxConns
	sc.Postgres.MinConns = cfg.Storage.Postgres.MinConns
	sc.Postgres.ConnMaxLifetime = cfg.Storage.Postgres.ConnMaxLifetime
	repo, err := store.Open(ctx, sc)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer repo.Close()

	svcs := entities.NewServices(entities.Deps{KV: repo})

	if _, err := svcs.Users.Create(ctx, *userID, entities.CreateUserInput{
		Name:  "Demo User",
		Email: "demo@example.com",
		Role:  "annotator",
	}); err != nil {
		// Re-sembrar sobre una base ya sembrada pisa el perfil; no es fatal.
		log.Printf("perfil demo: %v", err)
	}

	project, err := svcs.Projects.Create(ctx, *userID, entities.CreateProjectInput{
		Name:   "Demo Project",
		Type:   "detection",
		Labels: []string{"bounding-box"},
	})
	if err != nil {
		log.Fatalf("project: %v", err)
	}
	log.Printf("project %s", project.ProjectID)

	red := "#e74c3c"
	class, err := svcs.Classes.Create(ctx, project.ProjectID, entities.CreateClassInput{
		Name:  "vehicle",
		Color: &red,
	})
	if err != nil {
		log.Fatalf("class: %v", err)
	}

	block, err := svcs.Blocks.Create(ctx, project.ProjectID, entities.CreateBlockInput{
		Name: "Batch 001",
	})
	if err != nil {
		log.Fatalf("block: %v", err)
	}

	urls := []string{
		"https://images.example.com/demo/0001.jpg",
		"https://images.example.com/demo/0002.jpg",
		"https://images.example.com/demo/0003.jpg",
	}
	for i, u := range urls {
		order := i
		img, err := svcs.Images.Create(ctx, block.BlockID, entities.CreateImageInput{
			URL:   u,
			Order: &order,
		})
		if err != nil {
			log.Fatalf("image %d: %v", i, err)
		}
		if i == 0 {
			box := json.RawMessage(`{"type":"bbox","start":{"x":120,"y":80},"end":{"x":360,"y":240}}`)
			if _, err := svcs.Annotations.Create(ctx, *userID, img.ImageID, project.ProjectID, entities.CreateAnnotationInput{
				ClassID:  class.ClassID,
				Geometry: box,
			}); err != nil {
				log.Fatalf("annotation: %v", err)
			}
		}
	}

	log.Printf("seed listo: project=%s block=%s class=%s", project.ProjectID, block.BlockID, class.ClassID)
}
