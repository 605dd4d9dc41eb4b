package profile

import (
	"github.com/google/uuid"

	id "attache/pkg/domain"
)

// Catalog service identifiers are fixed so clients, posts, and the registry
// agree on them across deployments without a lookup call.
var (
	ServicePassportRenewal   = id.ServiceID(uuid.MustParse("7f4a1c9e-2b6d-4e8f-9a30-5c1d8e7b2f40"))
	ServiceVisaApplication   = id.ServiceID(uuid.MustParse("b3e82d51-9c47-4a0b-8f6e-1d2a7c4590e8"))
	ServiceBirthRegistration = id.ServiceID(uuid.MustParse("d09c6f3a-5e18-42b7-a94c-8b0f2e6d1735"))
)

// DefaultCatalog returns the built-in consular service definitions.
func DefaultCatalog() []Definition {
	return []Definition{
		{
			ServiceID:        ServicePassportRenewal,
			Name:             "passport renewal",
			RequiredSections: []string{"identity", "contacts"},
			Schema: Schema{
				"identity": {
					"firstName":    {Type: FieldTypeText},
					"lastName":     {Type: FieldTypeText},
					"birthDate":    {Type: FieldTypeDate},
					"birthPlace":   {Type: FieldTypeText},
					"passportNo":   {Type: FieldTypeText},
					"passportType": {Type: FieldTypeSelect, Options: []string{"ordinary", "service", "diplomatic"}},
				},
				"contacts": {
					"email":   {Type: FieldTypeText},
					"phone":   {Type: FieldTypeText},
					"address": {Type: FieldTypeText},
				},
			},
		},
		{
			ServiceID:        ServiceVisaApplication,
			Name:             "visa application",
			RequiredSections: []string{"identity", "travel"},
			Schema: Schema{
				"identity": {
					"firstName":   {Type: FieldTypeText},
					"lastName":    {Type: FieldTypeText},
					"birthDate":   {Type: FieldTypeDate},
					"birthPlace":  {Type: FieldTypeText},
					"nationality": {Type: FieldTypeText},
				},
				"travel": {
					"purpose":     {Type: FieldTypeSelect, Options: []string{"tourism", "business", "family", "study"}},
					"entryDate":   {Type: FieldTypeDate},
					"stayDays":    {Type: FieldTypeNumber},
					"destination": {Type: FieldTypeText},
				},
				"contacts": {
					"email": {Type: FieldTypeText},
					"phone": {Type: FieldTypeText},
				},
			},
		},
		{
			ServiceID:        ServiceBirthRegistration,
			Name:             "birth registration",
			RequiredSections: []string{"child", "parents"},
			Schema: Schema{
				"child": {
					"firstName":  {Type: FieldTypeText},
					"lastName":   {Type: FieldTypeText},
					"birthDate":  {Type: FieldTypeDate},
					"birthPlace": {Type: FieldTypeText},
					"sex":        {Type: FieldTypeSelect, Options: []string{"F", "M", "X"}},
				},
				"parents": {
					"motherFullName": {Type: FieldTypeText},
					"fatherFullName": {Type: FieldTypeText},
				},
				"contacts": {
					"email": {Type: FieldTypeText},
					"phone": {Type: FieldTypeText},
				},
			},
		},
	}
}
