package odi

import "encoding/xml"

type xmlPackage struct {
	XMLName     xml.Name
	NameAttr    string         `xml:"Name,attr"`
	Name        string         `xml:"Name"`
	Version     string         `xml:"Version,attr"`
	Description string         `xml:"Description"`
	Project     string         `xml:"Project"`
	Folder      string         `xml:"Folder"`
	Steps       *xmlSteps      `xml:"Steps"`
	Scenarios   []xmlScenario  `xml:"Scenarios>Scenario"`
	Interfaces  []xmlInterface `xml:"Interfaces>Interface"`
	Variables   []xmlVariable  `xml:"Variables>Variable"`
	Flows       []xmlFlow      `xml:"Connections>Flow"`
}

type xmlSteps struct {
	Steps []xmlStep `xml:"Step"`
}

type xmlStep struct {
	Name          string     `xml:"Name,attr"`
	Type          string     `xml:"Type,attr"`
	NextStep      string     `xml:"NextStep,attr"`
	Command       string     `xml:"Command"`
	ScenarioRef   xmlNameRef `xml:"ScenarioRef"`
	OnSuccess     xmlNextRef `xml:"OnSuccess"`
	OnFailure     xmlNextRef `xml:"OnFailure"`
	Annotation    string     `xml:"Annotation"`
	Configuration xmlInner   `xml:"Configuration"`
}

type xmlNameRef struct {
	Name string `xml:"Name,attr"`
}

type xmlNextRef struct {
	NextStep string `xml:"NextStep,attr"`
}

type xmlInner struct {
	Inner string `xml:",innerxml"`
	Text  string `xml:",chardata"`
}

type xmlScenario struct {
	Name        string       `xml:"Name,attr"`
	Version     string       `xml:"Version,attr"`
	Description string       `xml:"Description"`
	Folder      string       `xml:"Folder"`
	Variables   []xmlNameRef `xml:"Variables>Variable"`
}

type xmlInterface struct {
	Name            string       `xml:"Name,attr"`
	Source          xmlDataStore `xml:"Source"`
	Target          xmlDataStore `xml:"Target"`
	IntegrationType string       `xml:"IntegrationType"`
	Mappings        []xmlMapping `xml:"Mappings>Mapping"`
}

type xmlDataStore struct {
	Schema string `xml:"Schema,attr"`
	Table  string `xml:"Table,attr"`
}

type xmlMapping struct {
	SourceColumn string `xml:"SourceColumn,attr"`
	TargetColumn string `xml:"TargetColumn,attr"`
	Expression   string `xml:"Expression,attr"`
}

type xmlVariable struct {
	Name        string `xml:"Name,attr"`
	DefaultAttr string `xml:"Default,attr"`
	Default     string `xml:"Default"`
	Type        string `xml:"Type,attr"`
}

type xmlFlow struct {
	From string `xml:"From,attr"`
	To   string `xml:"To,attr"`
}
