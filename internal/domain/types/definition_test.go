package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Run("StandardNames", func(t *testing.T) {
		for _, name := range []string{"JOURNAL", "ACCOUNTS_RECEIVABLE", "BANK", "SALES_TAX_2"} {
			class, err := Classify(name)
			require.NoError(t, err, name)
			assert.Equal(t, ClassStandard, class, name)
		}
	})

	t.Run("VendorNames", func(t *testing.T) {
		class, err := Classify("vendor.quickbooks.BILL_PAYMENT_CHECK")
		require.NoError(t, err)
		assert.Equal(t, ClassVendor, class)
	})

	t.Run("ExtensionNames", func(t *testing.T) {
		class, err := Classify("ext.crypto.STAKING_REWARD")
		require.NoError(t, err)
		assert.Equal(t, ClassExtension, class)
	})

	t.Run("RejectedShapes", func(t *testing.T) {
		for _, name := range []string{
			"",
			"journal",
			"Journal",
			"vendor.QuickBooks.BILL", // namespace segment must be lowercase
			"vendor.quickbooks.bill", // type segment must be uppercase
			"ext..THING",
			"other.ns.TYPE",
			"_LEADING_UNDERSCORE",
			"vendor.quickbooks", // missing type segment
		} {
			_, err := Classify(name)
			require.Error(t, err, "expected rejection for %q", name)
			assert.ErrorAs(t, err, &InvalidNamespaceError{}, name)
		}
	})
}

func TestValidateNamespace(t *testing.T) {
	assert.NoError(t, ValidateNamespace("oaif"))
	assert.NoError(t, ValidateNamespace("vendor.quickbooks"))
	assert.NoError(t, ValidateNamespace("ext.crypto"))
	assert.Error(t, ValidateNamespace("Vendor.quickbooks"))
	assert.Error(t, ValidateNamespace("vendor.quickbooks.BILL"))
	assert.Error(t, ValidateNamespace(""))
}

func TestPassthroughNameIsValid(t *testing.T) {
	// The marker must itself survive the registration patterns so a writer
	// can round-trip it.
	require.NoError(t, ValidateName(PassthroughName))
}
