package match_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/gyeh/npi-match/internal/match"
	"github.com/gyeh/npi-match/internal/match/mocks"
	"github.com/gyeh/npi-match/internal/npi"
)

type MatcherTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	registry *mocks.MockRegistry
	matcher  *match.Matcher
	ctx      context.Context
}

func TestMatcherSuite(t *testing.T) {
	suite.Run(t, new(MatcherTestSuite))
}

func (s *MatcherTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.registry = mocks.NewMockRegistry(s.ctrl)
	s.matcher = match.New(s.registry)
	s.ctx = context.Background()
}

func provider(number, first, last string, addrs ...npi.Address) npi.Provider {
	return npi.Provider{
		Number:          number,
		EnumerationType: "NPI-1",
		Basic:           npi.Basic{FirstName: first, LastName: last},
		Addresses:       addrs,
		Taxonomies:      []npi.Taxonomy{{Code: "207Q00000X", Desc: "Family Medicine", Primary: true}},
	}
}

func addr(zip string, purpose npi.AddressPurpose) npi.Address {
	return npi.Address{Address1: "1 MAIN ST", City: "ANYTOWN", State: "NY", PostalCode: zip, Purpose: purpose}
}

// expectExact registers the exact-phase search and its pause.
func (s *MatcherTestSuite) expectExact(first, last string, out []npi.Provider) *gomock.Call {
	search := s.registry.EXPECT().Search(gomock.Any(), first, last, true).Return(out)
	return s.registry.EXPECT().Pause(gomock.Any()).Return(nil).After(search)
}

// expectWildcard registers the wildcard-phase search and its pause.
func (s *MatcherTestSuite) expectWildcard(after *gomock.Call, first, last string, out []npi.Provider) {
	search := s.registry.EXPECT().Search(gomock.Any(), first, last, false).Return(out).After(after)
	s.registry.EXPECT().Pause(gomock.Any()).Return(nil).After(search)
}

func (s *MatcherTestSuite) TestNoCandidatesInEitherPhase() {
	pause := s.expectExact("Zed", "Nobody", []npi.Provider{})
	s.expectWildcard(pause, "Zed", "Nobody", []npi.Provider{})

	res, err := s.matcher.Match(s.ctx, match.Input{Index: 4, FirstName: "Zed", LastName: "Nobody", Zip: "99999"})

	s.Require().NoError(err)
	s.Equal(4, res.OriginalIndex)
	s.Equal(match.MethodNoMatch, res.MatchMethod)
	s.Nil(res.NPI)
	s.Equal(0, res.TotalMatchesFound)
	s.Equal(0.0, res.FinalMatchScore)
	s.Nil(res.AddressType)
	s.Equal(0.0, res.NameMatch)
	s.Nil(res.MatchedProviderName)
	s.Nil(res.MatchedAddress)
	s.Nil(res.MatchedZip)
	s.Nil(res.MatchedTaxonomy)
	s.Equal("Zed Nobody", res.OriginalName)
	s.Equal("99999", res.OriginalZip)
}

func (s *MatcherTestSuite) TestSingleExactCandidateIgnoresZip() {
	s.expectExact("Jane", "Doe", []npi.Provider{
		provider("1234567893", "JANE", "DOE", addr("60601", npi.PurposeMailing)),
	})

	res, err := s.matcher.Match(s.ctx, match.Input{FirstName: "Jane", LastName: "Doe", Zip: "10001"})

	s.Require().NoError(err)
	s.Equal(match.MethodExact, res.MatchMethod)
	s.Require().NotNil(res.NPI)
	s.Equal("1234567893", *res.NPI)
	s.Equal(1, res.TotalMatchesFound)
	s.Equal(1.0, res.FinalMatchScore)
	s.Require().NotNil(res.AddressType)
	s.Equal(npi.PurposeMailing, *res.AddressType)
	s.Equal(1.0, res.NameMatch)
	s.Equal("JANE DOE", *res.MatchedProviderName)
	s.Equal("1 MAIN ST", *res.MatchedAddress)
	s.Equal("60601", *res.MatchedZip)
	s.Equal("Family Medicine", *res.MatchedTaxonomy)
}

func (s *MatcherTestSuite) TestSingleCandidateWithoutAddresses() {
	p := provider("1234567893", "JANE", "DOE")
	p.Taxonomies = nil
	s.expectExact("Jane", "Doe", []npi.Provider{p})

	res, err := s.matcher.Match(s.ctx, match.Input{FirstName: "Jane", LastName: "Doe", Zip: "10001"})

	s.Require().NoError(err)
	s.Equal(match.MethodExact, res.MatchMethod)
	s.Equal(1.0, res.FinalMatchScore)
	s.Nil(res.AddressType)
	s.Nil(res.MatchedAddress)
	s.Nil(res.MatchedZip)
	s.Nil(res.MatchedTaxonomy)
	s.Require().NotNil(res.MatchedProviderName)
}

func (s *MatcherTestSuite) TestMultipleExactCandidatesDisambiguatedByZip() {
	s.expectExact("John", "Smith", []npi.Provider{
		provider("1111111112", "JOHN", "SMITH", addr("30301", npi.PurposeLocation)),
		provider("2222222224", "JOHN", "SMITH", addr("10001", npi.PurposeLocation)),
		provider("3333333336", "JOHN", "SMITH", addr("94105", npi.PurposeLocation)),
	})

	res, err := s.matcher.Match(s.ctx, match.Input{FirstName: "John", LastName: "Smith", Zip: "10001"})

	s.Require().NoError(err)
	s.Equal(match.MethodExactWithZip, res.MatchMethod)
	s.Equal("2222222224", *res.NPI)
	s.Equal(3, res.TotalMatchesFound)
	s.Equal(1.0, res.FinalMatchScore)
	s.Equal(npi.PurposeLocation, *res.AddressType)
	s.Equal("10001", *res.MatchedZip)
}

func (s *MatcherTestSuite) TestMultipleCandidatesWithoutZipMatch() {
	s.expectExact("John", "Smith", []npi.Provider{
		provider("1111111112", "JOHN", "SMITH", addr("30301", npi.PurposeLocation)),
		provider("2222222224", "JOHN", "SMITH", addr("60601", npi.PurposeLocation)),
		provider("3333333336", "JOHN", "SMITH", addr("94105", npi.PurposeLocation)),
	})

	res, err := s.matcher.Match(s.ctx, match.Input{FirstName: "John", LastName: "Smith", Zip: "10001"})

	s.Require().NoError(err)
	s.Equal(match.MethodNoMatch, res.MatchMethod)
	s.Nil(res.NPI)
	s.Equal(3, res.TotalMatchesFound)
	s.Equal(0.0, res.FinalMatchScore)
	s.Nil(res.AddressType)
	s.Nil(res.MatchedProviderName)
}

func (s *MatcherTestSuite) TestTieGoesToFirstCandidate() {
	s.expectExact("John", "Smith", []npi.Provider{
		provider("1111111112", "JOHN", "SMITH", addr("10001", npi.PurposeMailing)),
		provider("2222222224", "JOHN", "SMITH", addr("10001", npi.PurposeLocation)),
	})

	res, err := s.matcher.Match(s.ctx, match.Input{FirstName: "John", LastName: "Smith", Zip: "10001"})

	s.Require().NoError(err)
	s.Equal("1111111112", *res.NPI)
	s.Equal(npi.PurposeMailing, *res.AddressType)
}

func (s *MatcherTestSuite) TestMatchedAddressComesFromFirstAddress() {
	s.expectExact("Jane", "Doe", []npi.Provider{
		provider("1234567893", "JANE", "DOE",
			npi.Address{Address1: "PO BOX 9", PostalCode: "122070001", Purpose: npi.PurposeMailing},
			npi.Address{Address1: "10 PARK AVE", PostalCode: "10001", Purpose: npi.PurposeLocation},
		),
		provider("1987654321", "JANE", "DOE", addr("02108", npi.PurposeLocation)),
	})

	res, err := s.matcher.Match(s.ctx, match.Input{FirstName: "Jane", LastName: "Doe", Zip: "10001"})

	s.Require().NoError(err)
	s.Equal(match.MethodExactWithZip, res.MatchMethod)
	s.Equal("1234567893", *res.NPI)
	s.Equal(npi.PurposeLocation, *res.AddressType)
	s.Equal("PO BOX 9", *res.MatchedAddress)
	s.Equal("122070001", *res.MatchedZip)
}

func (s *MatcherTestSuite) TestWildcardFallbackSingleCandidate() {
	pause := s.expectExact("Jon", "Smyth", nil)
	s.expectWildcard(pause, "Jon", "Smyth", []npi.Provider{
		provider("1111111112", "JONATHAN", "SMYTHE", addr("60601", npi.PurposeLocation)),
	})

	res, err := s.matcher.Match(s.ctx, match.Input{FirstName: "Jon", LastName: "Smyth", Zip: "10001"})

	s.Require().NoError(err)
	s.Equal(match.MethodWildcard, res.MatchMethod)
	s.Equal("1111111112", *res.NPI)
	s.Equal(1, res.TotalMatchesFound)
	s.Equal(1.0, res.FinalMatchScore)
	s.InDelta((3.0/8.0+5.0/6.0)/2, res.NameMatch, 1e-9)
}

func (s *MatcherTestSuite) TestWildcardFallbackWithZip() {
	pause := s.expectExact("Ann", "Lee", []npi.Provider{})
	s.expectWildcard(pause, "Ann", "Lee", []npi.Provider{
		provider("1111111112", "ANNE", "LEE", addr("60601", npi.PurposeLocation)),
		provider("2222222224", "ANNA", "LEEDS", addr("10001", npi.PurposeMailing)),
	})

	res, err := s.matcher.Match(s.ctx, match.Input{FirstName: "Ann", LastName: "Lee", Zip: "10001"})

	s.Require().NoError(err)
	s.Equal(match.MethodWildcardWithZip, res.MatchMethod)
	s.Equal("2222222224", *res.NPI)
	s.Equal(2, res.TotalMatchesFound)
	s.Equal(npi.PurposeMailing, *res.AddressType)
	s.InDelta((0.75+0.6)/2, res.NameMatch, 1e-9)
}

func (s *MatcherTestSuite) TestNameMatchAveragesBothNames() {
	s.expectExact("Jane", "Smith", []npi.Provider{
		provider("1234567893", "JANE", "SMYTH", addr("10001", npi.PurposeLocation)),
	})

	res, err := s.matcher.Match(s.ctx, match.Input{FirstName: "Jane", LastName: "Smith", Zip: "10001"})

	s.Require().NoError(err)
	s.InDelta(0.9, res.NameMatch, 1e-9)
}

func (s *MatcherTestSuite) TestEmptyNamesStillSearch() {
	pause := s.expectExact("", "", []npi.Provider{})
	s.expectWildcard(pause, "", "", []npi.Provider{})

	res, err := s.matcher.Match(s.ctx, match.Input{})

	s.Require().NoError(err)
	s.Equal(match.MethodNoMatch, res.MatchMethod)
	s.Equal(" ", res.OriginalName)
}

func (s *MatcherTestSuite) TestPauseCancellationStopsRow() {
	canceled := context.Canceled
	s.registry.EXPECT().Search(gomock.Any(), "Jane", "Doe", true).Return(nil)
	s.registry.EXPECT().Pause(gomock.Any()).Return(canceled)

	_, err := s.matcher.Match(s.ctx, match.Input{FirstName: "Jane", LastName: "Doe"})

	s.Require().Error(err)
	s.True(errors.Is(err, context.Canceled))
}

func (s *MatcherTestSuite) TestPauseCancellationDuringWildcard() {
	pause := s.expectExact("Jane", "Doe", nil)
	search := s.registry.EXPECT().Search(gomock.Any(), "Jane", "Doe", false).Return(nil).After(pause)
	s.registry.EXPECT().Pause(gomock.Any()).Return(context.DeadlineExceeded).After(search)

	_, err := s.matcher.Match(s.ctx, match.Input{FirstName: "Jane", LastName: "Doe"})

	s.ErrorIs(err, context.DeadlineExceeded)
}
