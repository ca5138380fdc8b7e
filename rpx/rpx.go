// Package rpx reads the 32-bit big-endian PowerPC ELF images the Wii
// U ships as .rpx/.rpl files.  Sections may be deflated in the file;
// symbol names are demangled on load.
package rpx

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/syoch/lib-wii-u-format/ghsdemangle"
	"github.com/syoch/lib-wii-u-format/stream"
)

const (
	emPPC       = 20
	elfClass32  = 1
	elfData2MSB = 2

	// RPX-specific section flag: the file holds a 4-byte inflated
	// size followed by a zlib stream
	shfDeflated = 0x08000000

	headerSize      = 52
	symtabEntrySize = 16

	// symbol info low nibble for functions
	sttFunc = 0x2
)

// Header is the 32-bit ELF header
type Header struct {
	ABI        byte
	ABIVersion byte

	Type          uint16
	Machine       uint16
	Version       uint32
	Entry         uint32
	PhOffset      uint32
	ShOffset      uint32
	Flags         uint32
	Size          uint16
	PhEntSize     uint16
	PhCount       uint16
	ShEntSize     uint16
	ShCount       uint16
	ShStrTabIndex uint16
}

// ProgramHeader is one loadable segment
type ProgramHeader struct {
	Type            uint32
	Offset          uint32
	VirtualAddress  uint32
	PhysicalAddress uint32
	FileSize        uint32
	MemSize         uint32
	Flags           uint32
	Align           uint32
}

// SectionHeader is one section, with its data already loaded and
// inflated when the deflate flag is set
type SectionHeader struct {
	NameOffset uint32
	Type       uint32
	Flags      uint32
	Addr       uint32
	Offset     uint32
	Size       uint32
	Link       uint32
	Info       uint32
	AddrAlign  uint32
	EntSize    uint32

	Name string
	Data []byte
}

// GetString reads a NUL-terminated string out of the section data
func (sh *SectionHeader) GetString(offset uint32) string {
	if int(offset) >= len(sh.Data) {
		return ""
	}
	data := sh.Data[offset:]
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data)
}

// Symbol is one .symtab entry with its name demangled and its bytes
// sliced out of the owning section
type Symbol struct {
	Mangled string
	Name    string
	Value   uint32
	Size    uint32
	Info    byte
	Other   byte
	Section int
	Data    []byte
}

// IsFunction reports whether the symbol marks code
func (s *Symbol) IsFunction() bool {
	return s.Info&0x0f == sttFunc
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%#010x %#010x| %s", s.Value, s.Size, s.Name)
}

// File is a fully loaded RPX image
type File struct {
	Header         Header
	Segments       []ProgramHeader
	Sections       []*SectionHeader
	SectionsByName map[string]*SectionHeader

	// Symbols and Functions are keyed by mangled name; Functions
	// is the subset marking code
	Symbols   map[string]*Symbol
	Functions map[string]*Symbol
}

// Open loads an RPX file from disk
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// Load parses an in-memory RPX image
func Load(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("rpx: file too short for an ELF header")
	}

	f := &File{}
	if err := f.readHeader(stream.NewReader(data)); err != nil {
		return nil, err
	}
	if err := f.readSectionHeaders(data); err != nil {
		return nil, err
	}
	f.readProgramHeaders(data)
	if err := f.loadSymbols(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) readHeader(r *stream.Reader) error {
	ident := r.Read(16)
	if !bytes.Equal(ident[:4], []byte("\x7fELF")) {
		return fmt.Errorf("rpx: bad ELF magic")
	}
	if ident[4] != elfClass32 {
		return fmt.Errorf("rpx: not a 32-bit image")
	}
	if ident[5] != elfData2MSB {
		return fmt.Errorf("rpx: not big-endian")
	}
	if ident[6] != 1 {
		return fmt.Errorf("rpx: unexpected ELF version %d", ident[6])
	}
	f.Header.ABI = ident[7]
	f.Header.ABIVersion = ident[8]

	f.Header.Type = uint16(r.ReadInt(2))
	f.Header.Machine = uint16(r.ReadInt(2))
	f.Header.Version = uint32(r.ReadInt(4))
	f.Header.Entry = uint32(r.ReadInt(4))
	f.Header.PhOffset = uint32(r.ReadInt(4))
	f.Header.ShOffset = uint32(r.ReadInt(4))
	f.Header.Flags = uint32(r.ReadInt(4))
	f.Header.Size = uint16(r.ReadInt(2))
	f.Header.PhEntSize = uint16(r.ReadInt(2))
	f.Header.PhCount = uint16(r.ReadInt(2))
	f.Header.ShEntSize = uint16(r.ReadInt(2))
	f.Header.ShCount = uint16(r.ReadInt(2))
	f.Header.ShStrTabIndex = uint16(r.ReadInt(2))

	if f.Header.Machine != emPPC {
		return fmt.Errorf("rpx: machine %d is not PowerPC", f.Header.Machine)
	}
	return nil
}

func (f *File) readSectionHeaders(data []byte) error {
	h := f.Header
	for i := 0; i < int(h.ShCount); i++ {
		offset := int(h.ShOffset) + i*int(h.ShEntSize)
		if offset+int(h.ShEntSize) > len(data) {
			return fmt.Errorf("rpx: section header %d out of bounds", i)
		}
		r := stream.NewReader(data[offset:])

		sh := &SectionHeader{
			NameOffset: uint32(r.ReadInt(4)),
			Type:       uint32(r.ReadInt(4)),
			Flags:      uint32(r.ReadInt(4)),
			Addr:       uint32(r.ReadInt(4)),
			Offset:     uint32(r.ReadInt(4)),
			Size:       uint32(r.ReadInt(4)),
			Link:       uint32(r.ReadInt(4)),
			Info:       uint32(r.ReadInt(4)),
			AddrAlign:  uint32(r.ReadInt(4)),
			EntSize:    uint32(r.ReadInt(4)),
		}
		if err := sh.loadData(data); err != nil {
			return fmt.Errorf("rpx: section %d: %w", i, err)
		}
		f.Sections = append(f.Sections, sh)
	}

	if int(h.ShStrTabIndex) >= len(f.Sections) {
		return fmt.Errorf("rpx: section name table index %d out of range", h.ShStrTabIndex)
	}
	names := f.Sections[h.ShStrTabIndex]
	f.SectionsByName = make(map[string]*SectionHeader, len(f.Sections))
	for _, sh := range f.Sections {
		sh.Name = names.GetString(sh.NameOffset)
		f.SectionsByName[sh.Name] = sh
	}
	return nil
}

func (sh *SectionHeader) loadData(data []byte) error {
	end := int(sh.Offset) + int(sh.Size)
	if int(sh.Offset) > len(data) || end > len(data) {
		return fmt.Errorf("data range %#x..%#x out of bounds", sh.Offset, end)
	}
	sh.Data = data[sh.Offset:end]

	if sh.Flags&shfDeflated != 0 {
		if len(sh.Data) < 4 {
			return fmt.Errorf("deflated section too short")
		}
		zr, err := zlib.NewReader(bytes.NewReader(sh.Data[4:]))
		if err != nil {
			return err
		}
		defer zr.Close()
		inflated, err := io.ReadAll(zr)
		if err != nil {
			return err
		}
		sh.Data = inflated
	}
	return nil
}

func (f *File) readProgramHeaders(data []byte) {
	h := f.Header
	for i := 0; i < int(h.PhCount); i++ {
		offset := int(h.PhOffset) + i*int(h.PhEntSize)
		if offset+int(h.PhEntSize) > len(data) {
			return
		}
		r := stream.NewReader(data[offset:])
		f.Segments = append(f.Segments, ProgramHeader{
			Type:            uint32(r.ReadInt(4)),
			Offset:          uint32(r.ReadInt(4)),
			VirtualAddress:  uint32(r.ReadInt(4)),
			PhysicalAddress: uint32(r.ReadInt(4)),
			FileSize:        uint32(r.ReadInt(4)),
			MemSize:         uint32(r.ReadInt(4)),
			Flags:           uint32(r.ReadInt(4)),
			Align:           uint32(r.ReadInt(4)),
		})
	}
}

func (f *File) loadSymbols() error {
	f.Symbols = map[string]*Symbol{}
	f.Functions = map[string]*Symbol{}

	symtab, ok := f.SectionsByName[".symtab"]
	if !ok {
		return nil
	}
	strtab, ok := f.SectionsByName[".strtab"]
	if !ok {
		return fmt.Errorf("rpx: .symtab without .strtab")
	}

	demangler := ghsdemangle.NewDemangler()
	r := stream.NewReader(symtab.Data)
	for r.Remaining() >= symtabEntrySize {
		sym := &Symbol{}
		nameOffset := uint32(r.ReadInt(4))
		sym.Value = uint32(r.ReadInt(4))
		sym.Size = uint32(r.ReadInt(4))
		sym.Info = byte(r.ReadInt(1))
		sym.Other = byte(r.ReadInt(1))
		sym.Section = int(r.ReadInt(2))

		sym.Mangled = strtab.GetString(nameOffset)
		sym.Name = sym.Mangled
		if fn, err := demangler.Demangle(sym.Mangled); err == nil {
			sym.Name = fn.String()
		}

		if sym.Section < len(f.Sections) {
			sh := f.Sections[sym.Section]
			start := int(sym.Value) - int(sh.Addr)
			end := start + int(sym.Size)
			if start >= 0 && end <= len(sh.Data) && start <= end {
				sym.Data = sh.Data[start:end]
			}
		}

		f.Symbols[sym.Mangled] = sym
		if sym.IsFunction() {
			f.Functions[sym.Mangled] = sym
		}
	}
	return nil
}

// Block is a half-open [Start, Stop) byte range of the file
type Block struct {
	Start int
	Stop  int
}

// UsedBlocks returns the file ranges covered by headers, section data
// and segment data, with overlapping or adjacent ranges coalesced and the
// result sorted by start offset
func (f *File) UsedBlocks() []Block {
	var blocks []Block
	add := func(start, stop int) {
		if stop > start {
			blocks = append(blocks, Block{Start: start, Stop: stop})
		}
	}

	add(0, int(f.Header.Size))
	add(int(f.Header.ShOffset), int(f.Header.ShOffset)+int(f.Header.ShCount)*int(f.Header.ShEntSize))
	add(int(f.Header.PhOffset), int(f.Header.PhOffset)+int(f.Header.PhCount)*int(f.Header.PhEntSize))
	for _, sh := range f.Sections {
		if sh.Name == ".bss" {
			continue
		}
		add(int(sh.Offset), int(sh.Offset)+int(sh.Size))
	}
	for _, ph := range f.Segments {
		add(int(ph.Offset), int(ph.Offset)+int(ph.FileSize))
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })

	var merged []Block
	for _, b := range blocks {
		if n := len(merged); n > 0 && merged[n-1].Stop >= b.Start {
			if b.Stop > merged[n-1].Stop {
				merged[n-1].Stop = b.Stop
			}
			continue
		}
		merged = append(merged, b)
	}
	return merged
}
