package npi

// AddressPurpose classifies an address's role in a registry record.
type AddressPurpose string

const (
	PurposeLocation  AddressPurpose = "LOCATION"
	PurposeMailing   AddressPurpose = "MAILING"
	PurposePrimary   AddressPurpose = "PRIMARY"
	PurposeSecondary AddressPurpose = "SECONDARY"
)

// Provider is one candidate record returned by the NPPES NPI Registry.
// Fields are kept as the registry sent them; display helpers clean them up.
type Provider struct {
	Number          string // 10-digit NPI
	EnumerationType string // "NPI-1" (individual) or "NPI-2" (organization)
	Basic           Basic
	Addresses       []Address
	Taxonomies      []Taxonomy
}

// Basic holds the name fields of a registry record.
type Basic struct {
	FirstName        string
	MiddleName       string
	LastName         string
	Credential       string
	OrganizationName string
	Status           string
	EnumerationDate  string
}

// Address is a practice or mailing address attached to a provider.
type Address struct {
	Address1   string
	Address2   string
	City       string
	State      string
	PostalCode string
	Purpose    AddressPurpose
	Phone      string
}

// Taxonomy is a provider specialty classification.
type Taxonomy struct {
	Code    string
	Desc    string
	Primary bool
	State   string
	License string
}

// DisplayName returns "<first> <last>" exactly as the registry spelled them.
func (p *Provider) DisplayName() string {
	return p.Basic.FirstName + " " + p.Basic.LastName
}

// FirstAddress returns the first listed address, or nil.
func (p *Provider) FirstAddress() *Address {
	if len(p.Addresses) == 0 {
		return nil
	}
	return &p.Addresses[0]
}

// FirstTaxonomy returns the first listed taxonomy, or nil.
func (p *Provider) FirstTaxonomy() *Taxonomy {
	if len(p.Taxonomies) == 0 {
		return nil
	}
	return &p.Taxonomies[0]
}

// PrimaryTaxonomy returns the taxonomy flagged primary, falling back to the
// first one.
func (p *Provider) PrimaryTaxonomy() *Taxonomy {
	for i := range p.Taxonomies {
		if p.Taxonomies[i].Primary {
			return &p.Taxonomies[i]
		}
	}
	return p.FirstTaxonomy()
}

type apiResponse struct {
	ResultCount *int        `json:"result_count"`
	Results     []apiResult `json:"results"`
	Errors      []apiError  `json:"Errors"`
}

type apiError struct {
	Description string `json:"description"`
	Field       string `json:"field"`
	Number      string `json:"number"`
}

type apiResult struct {
	Number          string        `json:"number"`
	EnumerationType string        `json:"enumeration_type"`
	Basic           apiBasic      `json:"basic"`
	Addresses       []apiAddress  `json:"addresses"`
	Taxonomies      []apiTaxonomy `json:"taxonomies"`
}

type apiBasic struct {
	// Individual fields
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	Credential string `json:"credential"`

	// Organization fields
	OrganizationName string `json:"organization_name"`

	EnumerationDate string `json:"enumeration_date"`
	Status          string `json:"status"`
}

type apiAddress struct {
	Address1       string `json:"address_1"`
	Address2       string `json:"address_2"`
	City           string `json:"city"`
	State          string `json:"state"`
	PostalCode     string `json:"postal_code"`
	AddressPurpose string `json:"address_purpose"`
	Phone          string `json:"telephone_number"`
}

type apiTaxonomy struct {
	Code    string `json:"code"`
	Desc    string `json:"desc"`
	Primary bool   `json:"primary"`
	State   string `json:"state"`
	License string `json:"license"`
}

func toProvider(r apiResult) Provider {
	p := Provider{
		Number:          r.Number,
		EnumerationType: r.EnumerationType,
		Basic: Basic{
			FirstName:        r.Basic.FirstName,
			MiddleName:       r.Basic.MiddleName,
			LastName:         r.Basic.LastName,
			Credential:       r.Basic.Credential,
			OrganizationName: r.Basic.OrganizationName,
			Status:           r.Basic.Status,
			EnumerationDate:  r.Basic.EnumerationDate,
		},
	}
	if len(r.Addresses) > 0 {
		p.Addresses = make([]Address, 0, len(r.Addresses))
		for _, a := range r.Addresses {
			p.Addresses = append(p.Addresses, Address{
				Address1:   a.Address1,
				Address2:   a.Address2,
				City:       a.City,
				State:      a.State,
				PostalCode: a.PostalCode,
				Purpose:    AddressPurpose(a.AddressPurpose),
				Phone:      a.Phone,
			})
		}
	}
	if len(r.Taxonomies) > 0 {
		p.Taxonomies = make([]Taxonomy, 0, len(r.Taxonomies))
		for _, t := range r.Taxonomies {
			p.Taxonomies = append(p.Taxonomies, Taxonomy{
				Code:    t.Code,
				Desc:    t.Desc,
				Primary: t.Primary,
				State:   t.State,
				License: t.License,
			})
		}
	}
	return p
}
