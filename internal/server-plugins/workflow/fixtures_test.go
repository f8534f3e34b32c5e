//go:build !integration

package workflow_test

const alteryxDoc = `<?xml version="1.0"?>
<AlteryxDocument yxmdVer="2023.1">
  <Nodes>
    <Node ToolID="1">
      <GuiSettings Plugin="AlteryxBasePluginsGui.DbFileInput.DbFileInput"><Position x="54" y="66" /></GuiSettings>
      <Properties>
        <Configuration><File>srv.corp.local|||SELECT * FROM sales WHERE d = '2024-01-31'</File></Configuration>
        <Annotation><DefaultAnnotationText>Read sales</DefaultAnnotationText></Annotation>
      </Properties>
    </Node>
    <Node ToolID="2">
      <GuiSettings Plugin="AlteryxBasePluginsGui.Filter.Filter"><Position x="150" y="66" /></GuiSettings>
      <Properties>
        <Configuration><Expression>[Amount] &gt; 0</Expression></Configuration>
        <Annotation><Name>Positive</Name></Annotation>
      </Properties>
    </Node>
    <Node ToolID="3">
      <GuiSettings Plugin="AlteryxBasePluginsGui.CustomPythonTool.CustomPythonTool"><Position x="250" y="66" /></GuiSettings>
      <Properties><Configuration><Script>print(1)</Script></Configuration></Properties>
    </Node>
    <Node ToolID="4">
      <GuiSettings Plugin="AlteryxBasePluginsGui.DbFileOutput.DbFileOutput"><Position x="350" y="66" /></GuiSettings>
      <Properties><Configuration><File>out.csv</File></Configuration></Properties>
    </Node>
  </Nodes>
  <Connections>
    <Connection><Origin ToolID="1" Connection="Output" /><Destination ToolID="2" Connection="Input" /></Connection>
    <Connection><Origin ToolID="2" Connection="True" /><Destination ToolID="3" Connection="Input" /></Connection>
    <Connection><Origin ToolID="3" Connection="Output" /><Destination ToolID="4" Connection="Input" /></Connection>
  </Connections>
  <Properties><MetaInfo><Name>Sales</Name></MetaInfo></Properties>
</AlteryxDocument>
`

const odiDoc = `<?xml version="1.0" encoding="UTF-8"?>
<OdiPackage Name="PKG_SALES">
  <Steps>
    <Step Name="LOAD" Type="DataStoreCommand">
      <Command>SELECT 1</Command>
      <OnSuccess NextStep="AGG" />
      <OnFailure NextStep="MAIL" />
    </Step>
    <Step Name="AGG" Type="ProcedureCommand" NextStep="GHOST">
      <Command>UPDATE t SET a = 1</Command>
    </Step>
    <Step Name="MAIL" Type="OdiCommand"><Command>OdiSendMail</Command></Step>
  </Steps>
</OdiPackage>
`
