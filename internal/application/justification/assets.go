package justification

import (
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/advisory/backoffice/internal/domain/shared"
)

// Static file names
const (
	logoFile              = "logo.png"
	advisorSignatureFile  = "signature.jpg"
	advisorSignatureFile2 = "sign.jpg"
)

// companyKitFolder maps a company name fragment to its kit folder. Order
// matters: the first fragment contained in the company name wins.
var companyKitFolders = []struct {
	company string
	folder  string
}{
	{"הפניקס", "fnx"},
	{"אנליסט", "anlyst"},
	{"אלטשולר שחם", "as"},
	{"מיטב-דש", "ds"},
	{"מור", "mor"},
	{"אינפיניטי", "nfty"},
	{"ילין לפידות", "yl"},
}

// kitTemplateNames is the preferred template file per fund type
var kitTemplateNames = map[string]string{
	justification.FundTypeGemel:           "הצטרפות גמל קיט עצמאי מלא מוכן למערכת.pdf",
	justification.FundTypeGemelInvestment: "הצטרפות גמל להשקעה קיט עצמאי מלא מוכן למערכת.pdf",
	justification.FundTypeHishtalmut:      "הצטרפות השתלמות קיט עצמאי מלא מוכן למערכת.pdf",
}

// Assets are the read-only inputs of generated documents
type Assets struct {
	Kits   fs.FS // kit templates, one folder per company
	Static fs.FS // logo and advisor signature
	B1     fs.FS
	B1Name string
}

// NewDirAssets serves assets from local directories
func NewDirAssets(kitsDir, staticDir, b1Template string) Assets {
	return Assets{
		Kits:   os.DirFS(kitsDir),
		Static: os.DirFS(staticDir),
		B1:     os.DirFS(filepath.Dir(b1Template)),
		B1Name: filepath.Base(b1Template),
	}
}

// B1Template returns the power-of-attorney form
func (a Assets) B1Template() ([]byte, error) {
	if a.B1 == nil {
		return nil, shared.ErrDocumentNotFound
	}
	return readAsset(a.B1, a.B1Name)
}

// KitTemplate selects the enrollment kit for a company and fund type: the
// company folder when one matches, else the kit root; inside it the fund
// type's template, else the first PDF.
func (a Assets) KitTemplate(companyName, fundType string) (string, []byte, error) {
	if a.Kits == nil {
		return "", nil, shared.ErrNoTemplateFound
	}
	dir := a.kitDir(companyName)

	if name, ok := kitTemplateNames[fundType]; ok {
		p := path.Join(dir, name)
		if data, err := readAsset(a.Kits, p); err == nil {
			return p, data, nil
		}
	}

	entries, err := fs.ReadDir(a.Kits, dir)
	if err != nil {
		return "", nil, shared.ErrNoTemplateFound
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(path.Ext(e.Name()), ".pdf") {
			continue
		}
		p := path.Join(dir, e.Name())
		data, err := readAsset(a.Kits, p)
		if err != nil {
			return "", nil, err
		}
		return p, data, nil
	}
	return "", nil, shared.ErrNoTemplateFound
}

func (a Assets) kitDir(companyName string) string {
	if companyName == "" {
		return "."
	}
	for _, m := range companyKitFolders {
		if !strings.Contains(companyName, m.company) {
			continue
		}
		if info, err := fs.Stat(a.Kits, m.folder); err == nil && info.IsDir() {
			return m.folder
		}
	}
	return "."
}

// LogoDataURL returns the logo as an inline image, or "" when missing
func (a Assets) LogoDataURL() string {
	data, err := readAsset(a.Static, logoFile)
	if err != nil {
		return ""
	}
	return imageDataURL("image/png", data)
}

// AdvisorSignature returns signature.jpg, falling back to sign.jpg
func (a Assets) AdvisorSignature() []byte {
	for _, name := range []string{advisorSignatureFile, advisorSignatureFile2} {
		if data, err := readAsset(a.Static, name); err == nil {
			return data
		}
	}
	return nil
}

func readAsset(fsys fs.FS, name string) ([]byte, error) {
	if fsys == nil {
		return nil, shared.ErrDocumentNotFound
	}
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, shared.ErrDocumentNotFound
	}
	return data, err
}

func imageDataURL(mime string, data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL decodes a "data:...;base64," URL or bare base64 text
func DecodeDataURL(v string) ([]byte, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if _, payload, ok := strings.Cut(v, ","); ok {
		v = payload
	}
	data, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "signature is not valid base64")
	}
	return data, nil
}
