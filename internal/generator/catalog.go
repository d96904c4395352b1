package generator

import "imsgen/internal/models"

// Command 單一指令範本
type Command struct {
	Kind     models.CommandKind
	Template string
}

// Section 一個網元的腳本區段。
// 輸出時以換行連接：Lead+Banner+Trail 為第一行，之後每組指令依號碼展開，組與組之間插入一個 "\n" 項目。
type Section struct {
	Element  models.NetworkElement
	Banner   string
	Lead     string
	Trail    string
	Commands []Command
}

const bannerFill = "********************************************************"

// DefaultCatalog 回傳 USPP、ENUM、SSS 三個網元的固定範本
func DefaultCatalog() []Section {
	return []Section{
		{
			Element: models.ElementUSPP,
			Banner:  "//******************************USPP网元放号" + bannerFill,
			Commands: []Command{
				{
					Kind:     models.CommandPVI,
					Template: "ADD NEWPVI:PVITYPE=0,PVI={{phone}}@{{domain}},IREGFLAG=1,IDENTITYTYPE=0,PECFN={{cfn}},SECFN={{cfn}},PCCFN={{cfn}},SCCFN={{cfn}},SecVer=30,UserName=,PASSWORD={{password}},Realm={{domain}},ACCTypeList=*,ACCInfoList=*,ACCValueList=*;",
				},
				{
					Kind:     models.CommandPUISIP,
					Template: "ADD NEWPUI:IDENTITYTYPE=0,PUI=sip:{{phone}}@{{domain}},BARFLAG=0,REGAUTHFG=1,SIFCIDList={{sifc_id}},ROAMSCHEMEID=1,SPID=1,SPDesc=65535,PVIList={{phone}}@{{domain}},SCSCFNameList=sip:{{scscf}}.{{domain}},LOOSEROUTEIND=0;",
				},
				{
					Kind:     models.CommandPUITel,
					Template: "ADD NEWPUI:IDENTITYTYPE=0,PUI=tel:{{phone}},BARFLAG=0,REGAUTHFG=1,SIFCIDList={{sifc_id}},ROAMSCHEMEID=1,SPID=1,SPDesc=65535,PVIList={{phone}}@{{domain}},SCSCFNameList=sip:{{scscf}}.{{domain}},LOOSEROUTEIND=0;",
				},
				{
					Kind:     models.CommandIMPRegSet,
					Template: "SET IMPREGSET:PUIList=sip:{{phone}}@{{domain}}$tel:{{phone}},DefaultPUI=tel:{{phone}};",
				},
				{
					Kind:     models.CommandAliasGroup,
					Template: "SET ALIASEGROUP:PUIList=sip:{{phone}}@{{domain}}$tel:{{phone}},AliasGroupID={{alias_id}};",
				},
			},
		},
		{
			Element: models.ElementENUM,
			Banner:  "//******************************ENUM网元放号" + bannerFill,
			Lead:    "\n\n",
			Trail:   "\n",
			Commands: []Command{
				{
					Kind:     models.CommandNAPTR,
					Template: "ADD NaptrRec:name={{enum_name}}.e164.arpa,Order=0,Preference=1,Flags=U,Service=sip+e2u,Regexp=!^.*$!sip:{{phone}}@{{domain}}!,TTL=0;",
				},
			},
		},
		{
			Element: models.ElementSSS,
			Banner:  "//******************************SSS网元放号" + bannerFill,
			Lead:    "\n\n\n",
			Commands: []Command{
				{
					// IMSUSERTYPE 前補上逗號，舊版範本漏了這個分隔符
					Kind:     models.CommandOSUSBR,
					Template: `ADD OSU SBR:PUI="tel:{{phone}}",NETTYPE=1,CC={{cc}},LATA={{lata}},TYPE="IMS",OFFLCHG="ON",CORHT="LC"&"DDD"&"IDD"&"SPCS"&"HF"&"HKMACAOTW"&"LT",CIRHT="LC"&"DDD"&"IDD"&"SPCS"&"HF"&"HKMACAOTW"&"LT",CTXOUTRHT="GRPIN"&"GRPOUT"&"GRPOUTNUM",CTXINRHT="GRPIN"&"GRPOUT"&"GRPOUTNUM",IMSUSERTYPE="NMIMS";`,
				},
				{
					Kind:     models.CommandOSUOIP,
					Template: `SET OSU OIP:PUI="sip:{{phone}}@{{domain}}",NF="TEL";`,
				},
			},
		},
	}
}
