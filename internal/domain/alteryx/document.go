package alteryx

import (
	"encoding/xml"
	"strings"
)

// XML shapes of an Alteryx document. Only the parts the structural model
// needs are declared; everything else is ignored by the decoder.

type xmlDocument struct {
	XMLName     xml.Name
	Version     string          `xml:"yxmdVer,attr,omitempty"`
	Nodes       *xmlNodes       `xml:"Nodes"`
	Connections *xmlConnections `xml:"Connections"`
	Properties  *xmlDocProps    `xml:"Properties"`
}

type xmlNodes struct {
	Nodes []xmlNode `xml:"Node"`
}

type xmlNode struct {
	ToolID        string            `xml:"ToolID,attr"`
	GuiSettings   *xmlGuiSettings   `xml:"GuiSettings"`
	Properties    *xmlNodeProps     `xml:"Properties"`
	Configuration *xmlConfiguration `xml:"Configuration"`
	ChildNodes    *xmlNodes         `xml:"ChildNodes"`
}

type xmlGuiSettings struct {
	Plugin   string       `xml:"Plugin,attr,omitempty"`
	Position *xmlPosition `xml:"Position"`
}

type xmlPosition struct {
	X string `xml:"x,attr"`
	Y string `xml:"y,attr"`
}

type xmlNodeProps struct {
	Configuration *xmlConfiguration `xml:"Configuration"`
	Annotation    *xmlAnnotation    `xml:"Annotation"`
}

type xmlConfiguration struct {
	Inner  string       `xml:",innerxml"`
	Fields []xmlElement `xml:",any"`
}

type xmlAnnotation struct {
	AnnotationText        string `xml:"AnnotationText,omitempty"`
	Name                  string `xml:"Name,omitempty"`
	DefaultAnnotationText string `xml:"DefaultAnnotationText,omitempty"`
}

// text returns the user annotation, falling back to the generated default.
func (a *xmlAnnotation) text() string {
	if a == nil {
		return ""
	}
	for _, s := range []string{a.AnnotationText, a.Name, a.DefaultAnnotationText} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

type xmlElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Inner   string     `xml:",innerxml"`
}

// value flattens an element: its text, else a value attribute, else the
// remaining attributes, else its inner markup.
func (e xmlElement) value() string {
	if t := strings.TrimSpace(e.Text); t != "" {
		return t
	}
	for _, a := range e.Attrs {
		if a.Name.Local == "value" {
			return a.Value
		}
	}
	if len(e.Attrs) > 0 {
		parts := make([]string, 0, len(e.Attrs))
		for _, a := range e.Attrs {
			parts = append(parts, a.Name.Local+"="+a.Value)
		}
		return strings.Join(parts, ";")
	}
	return strings.TrimSpace(e.Inner)
}

type xmlConnections struct {
	Connections []xmlConnection `xml:"Connection"`
}

type xmlConnection struct {
	Name        string      `xml:"name,attr,omitempty"`
	Origin      xmlEndpoint `xml:"Origin"`
	Destination xmlEndpoint `xml:"Destination"`
}

type xmlEndpoint struct {
	ToolID     string `xml:"ToolID,attr"`
	Connection string `xml:"Connection,attr,omitempty"`
}

type xmlDocProps struct {
	MetaInfo  *xmlMetaInfo  `xml:"MetaInfo"`
	Constants *xmlConstants `xml:"Constants"`
}

type xmlMetaInfo struct {
	Entries []xmlElement `xml:",any"`
}

type xmlConstants struct {
	Constants []xmlConstant `xml:"Constant"`
}

type xmlConstant struct {
	NameAttr  string `xml:"Name,attr,omitempty"`
	ValueAttr string `xml:"Value,attr,omitempty"`
	Name      string `xml:"Name,omitempty"`
	Value     string `xml:"Value,omitempty"`
}
