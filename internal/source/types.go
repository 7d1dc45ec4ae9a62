package source

type (
	// FileID uniquely identifies a file within a FileSet.
	FileID uint32 // просто ID источника
	// FileFlags encodes metadata about a file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска
	FileHadBOM
	FileNormalizedCRLF
)

// Kind tells resource files apart from code files that carry usages.
type Kind uint8

const (
	KindCode Kind = iota
	KindResource
)

func (k Kind) String() string {
	if k == KindResource {
		return "resource"
	}
	return "code"
}

// File captures metadata and content for a single loaded file.
type File struct {
	ID      FileID
	Path    string
	Kind    Kind
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
