package data

import "embed"

var (
	//go:embed manifest.yaml solvers.yaml b1000.yaml gsmg.yaml hash_collision.yaml zden.yaml bitaps.yaml
	Collections embed.FS
)
