package destination

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/retry"
)

const managedByLabel = "app.kubernetes.io/managed-by"

// Kubernetes writes values as data entries of one Secret. The Secret is
// created on first write; other keys already in it are kept.
type Kubernetes struct {
	clientset kubernetes.Interface
	namespace string
	secret    string
}

// KubernetesTarget addresses the Secret to write.
type KubernetesTarget struct {
	Namespace string
	Secret    string
	// Kubeconfig is a path; empty uses $KUBECONFIG or ~/.kube/config.
	Kubeconfig string
	Context    string
}

// NewKubernetes builds a clientset from the target's kubeconfig.
func NewKubernetes(target KubernetesTarget) (*Kubernetes, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	rules.ExplicitPath = target.Kubeconfig

	overrides := &clientcmd.ConfigOverrides{CurrentContext: target.Context}
	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	return NewKubernetesWithClient(clientset, target.Namespace, target.Secret)
}

// NewKubernetesWithClient returns a destination over an existing clientset.
func NewKubernetesWithClient(clientset kubernetes.Interface, namespace, secret string) (*Kubernetes, error) {
	if namespace == "" {
		namespace = metav1.NamespaceDefault
	}
	if secret == "" {
		return nil, fmt.Errorf("kubernetes secret name is required")
	}
	return &Kubernetes{clientset: clientset, namespace: namespace, secret: secret}, nil
}

func (k *Kubernetes) Name() string {
	return TypeKubernetes + ":" + k.namespace + "/" + k.secret
}

func (k *Kubernetes) Set(ctx context.Context, key, value string) error {
	secrets := k.clientset.CoreV1().Secrets(k.namespace)

	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		current, err := secrets.Get(ctx, k.secret, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			_, err = secrets.Create(ctx, &corev1.Secret{
				ObjectMeta: metav1.ObjectMeta{
					Name:      k.secret,
					Namespace: k.namespace,
					Labels:    map[string]string{managedByLabel: "secretctl"},
				},
				Type: corev1.SecretTypeOpaque,
				Data: map[string][]byte{key: []byte(value)},
			}, metav1.CreateOptions{})
			if apierrors.IsAlreadyExists(err) {
				// Lost a create race; surface as a conflict so the update path runs.
				return apierrors.NewConflict(corev1.Resource("secrets"), k.secret, err)
			}
			return err
		}
		if err != nil {
			return err
		}

		if current.Data == nil {
			current.Data = map[string][]byte{}
		}
		current.Data[key] = []byte(value)
		_, err = secrets.Update(ctx, current, metav1.UpdateOptions{})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write %s to secret %s/%s: %w", key, k.namespace, k.secret, err)
	}

	log.Debugf("☸️ Secret %s/%s key %s updated", k.namespace, k.secret, key)
	return nil
}
