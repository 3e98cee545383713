package index

// Manifest defines the manifest operations used by the sync pipeline and the
// status surfaces. Consumers should depend on this interface rather than the
// concrete *DB type.
type Manifest interface {
	Reset() error
	RecordPost(p PostRow, links []string) error
	GetPost(file string) (*PostRow, error)
	ListPosts() ([]PostRow, error)
	DanglingLinks() ([]DanglingLink, error)
	SlugCollisions() ([]Collision, error)
	Close() error
}

// Verify *DB satisfies Manifest at compile time.
var _ Manifest = (*DB)(nil)
