// Package registry implements the operation surface of the package
// registry: authentication, package and user management, and the query
// semantics the HTTP boundary exposes.
package registry

import (
	"crypto/sha256"
	"fmt"

	"github.com/mwantia/cpkgs/pkg/db/models"
	"github.com/mwantia/cpkgs/pkg/db/store"
	"github.com/mwantia/cpkgs/pkg/log"
)

// Service wraps the entity store with identity context and view
// assembly. The store handle is owned by the caller and injected here;
// the service never opens or closes it.
type Service struct {
	store store.RegistryStore
	log   log.LoggerService
}

// NewService creates a registry service on top of an opened store.
func NewService(rs store.RegistryStore, logger log.LoggerService) *Service {
	return &Service{
		store: rs,
		log:   logger.Named("registry"),
	}
}

// checksum digests the package identity fields. It is recomputed on
// every update so a content change always moves the digest.
func checksum(pkg *models.Package) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s\x00%s\x00%s\x00%d",
		pkg.Name, pkg.Version, pkg.Architecture, pkg.Size))
	return fmt.Sprintf("%x", sum)
}

// storagePath is where the package archive would live on disk.
func storagePath(name, version string) string {
	return fmt.Sprintf("/packages/%s/%s-%s.deb", name, name, version)
}
