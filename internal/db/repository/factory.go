package repository

import "gorm.io/gorm"

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db          *gorm.DB
	growerRepo  GrowerRepository
	cropRepo    CropRepository
	readingRepo ReadingRepository
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(db *gorm.DB) *RepositoryFactory {
	return &RepositoryFactory{
		db: db,
	}
}

// Grower returns the grower repository
func (f *RepositoryFactory) Grower() GrowerRepository {
	if f.growerRepo == nil {
		f.growerRepo = NewGrowerRepository(f.db)
	}
	return f.growerRepo
}

// Crop returns the crop repository
func (f *RepositoryFactory) Crop() CropRepository {
	if f.cropRepo == nil {
		f.cropRepo = NewCropRepository(f.db)
	}
	return f.cropRepo
}

// Reading returns the reading repository
func (f *RepositoryFactory) Reading() ReadingRepository {
	if f.readingRepo == nil {
		f.readingRepo = NewReadingRepository(f.db)
	}
	return f.readingRepo
}
