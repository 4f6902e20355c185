package justification

import (
	"fmt"
	"strings"

	"github.com/advisory/backoffice/internal/domain/client"
	"golang.org/x/text/unicode/norm"
)

// Stored file names inside a client folder
const (
	b1EditedFile        = "b1_edited.pdf"
	clientSignatureFile = "client_signature.png"
)

// ClientFolder is the document-store folder of a client:
// "<id>_<first>_<last>" in NFC form
func ClientFolder(c *client.Client) string {
	name := fmt.Sprintf("%d_%s_%s", c.ID, client.Deref(c.FirstName), client.Deref(c.LastName))
	return norm.NFC.String(name)
}

func b1AutoFile(c *client.Client) string {
	return norm.NFC.String(fmt.Sprintf("יפוי כח עבור %s %s.pdf", client.Deref(c.FirstName), client.Deref(c.LastName)))
}

func kitAutoFile(clientID, newProductID uint) string {
	return fmt.Sprintf("kit_%d_%d.pdf", clientID, newProductID)
}

func kitEditedFile(newProductID uint) string {
	return fmt.Sprintf("kit_%d_edited.pdf", newProductID)
}

func packetFile(clientID uint) string {
	return fmt.Sprintf("packet_%d.pdf", clientID)
}

func packetEditedFile(clientID uint) string {
	return fmt.Sprintf("packet_%d_edited.pdf", clientID)
}

func packetSignedFile(clientID uint) string {
	return fmt.Sprintf("packet_%d_signed_client.pdf", clientID)
}

// adviceFile is the stored advice PDF. Non-ASCII characters are replaced so
// the name can travel in HTTP headers.
func adviceFile(c *client.Client) string {
	display := c.FullName
	if display == "" {
		display = client.Deref(c.IDNumber)
	}
	name := asciiSafe(display, true)
	if name == "" {
		name = fmt.Sprintf("client_%d", c.ID)
	}
	return "justification_" + name + ".pdf"
}

// asciiIDPart is the client's ID number reduced to ASCII alphanumerics,
// falling back to the record id
func asciiIDPart(c *client.Client) string {
	id := asciiSafe(client.Deref(c.IDNumber), false)
	if id == "" {
		return fmt.Sprint(c.ID)
	}
	return id
}

// asciiSafe keeps ASCII letters and digits. With replace set every other
// rune becomes "_", otherwise it is dropped.
func asciiSafe(s string, replace bool) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < 0x80 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'):
			b.WriteRune(r)
		case replace:
			b.WriteByte('_')
		}
	}
	return b.String()
}
