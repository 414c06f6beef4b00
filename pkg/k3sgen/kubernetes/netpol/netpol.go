/*
Copyright 2026 The k3sgen Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package netpol

import (
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

const namespaceNameLabel = "kubernetes.io/metadata.name"

// Options describe the NetworkPolicy protecting one workload.
type Options struct {
	Name      string
	Namespace string
	Labels    map[string]string

	// PodSelector selects the pods of the workload.
	PodSelector map[string]string

	Visibility latest.Visibility

	// Port is the container port every ingress rule opens.
	Port int32

	// IngressController is the controller allowed in for public workloads.
	IngressController string

	// AllowFrom are extra ingress sources. They are the only sources of a
	// restricted workload.
	AllowFrom []latest.AccessRule

	// AllowTo restricts egress. Egress is unrestricted when empty.
	AllowTo []latest.AccessRule
}

// New returns the NetworkPolicy described by opts.
//
// Ingress rules are, in order: the sources implied by the visibility, one
// rule per AllowFrom entry and finally the KEDA namespace, which must always
// reach the pods for scale from zero to work.
func New(opts Options) *networkingv1.NetworkPolicy {
	ports := []networkingv1.NetworkPolicyPort{tcpPort(opts.Port)}

	var ingress []networkingv1.NetworkPolicyIngressRule
	for _, peer := range visibilityPeers(opts.Visibility, opts.IngressController) {
		ingress = append(ingress, networkingv1.NetworkPolicyIngressRule{From: []networkingv1.NetworkPolicyPeer{peer}, Ports: ports})
	}
	for _, rule := range opts.AllowFrom {
		if peer, ok := accessPeer(rule); ok {
			ingress = append(ingress, networkingv1.NetworkPolicyIngressRule{From: []networkingv1.NetworkPolicyPeer{peer}, Ports: ports})
		}
	}
	ingress = append(ingress, networkingv1.NetworkPolicyIngressRule{
		From:  []networkingv1.NetworkPolicyPeer{namespacePeer(constants.KedaNamespace)},
		Ports: ports,
	})

	policy := &networkingv1.NetworkPolicy{
		TypeMeta: metav1.TypeMeta{APIVersion: "networking.k8s.io/v1", Kind: "NetworkPolicy"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      opts.Name,
			Namespace: opts.Namespace,
			Labels:    opts.Labels,
		},
		Spec: networkingv1.NetworkPolicySpec{
			PodSelector: metav1.LabelSelector{MatchLabels: opts.PodSelector},
			PolicyTypes: []networkingv1.PolicyType{networkingv1.PolicyTypeIngress},
			Ingress:     ingress,
		},
	}

	if len(opts.AllowTo) > 0 {
		policy.Spec.PolicyTypes = append(policy.Spec.PolicyTypes, networkingv1.PolicyTypeEgress)
		policy.Spec.Egress = append(policy.Spec.Egress, dnsRule())
		for _, rule := range opts.AllowTo {
			if peer, ok := accessPeer(rule); ok {
				policy.Spec.Egress = append(policy.Spec.Egress, networkingv1.NetworkPolicyEgressRule{To: []networkingv1.NetworkPolicyPeer{peer}})
			}
		}
	}
	return policy
}

func visibilityPeers(visibility latest.Visibility, controller string) []networkingv1.NetworkPolicyPeer {
	switch visibility {
	case latest.Public:
		if controller == constants.IngressHAProxy {
			return []networkingv1.NetworkPolicyPeer{namespacePeer(constants.HAProxyIngressNamespace)}
		}
		peer := namespacePeer(constants.TraefikNamespace)
		peer.PodSelector = &metav1.LabelSelector{MatchLabels: map[string]string{constants.TraefikPodLabel: constants.TraefikPodLabelValue}}
		return []networkingv1.NetworkPolicyPeer{peer}
	case latest.Internal:
		return []networkingv1.NetworkPolicyPeer{{NamespaceSelector: &metav1.LabelSelector{}}}
	case latest.Private:
		return []networkingv1.NetworkPolicyPeer{{PodSelector: &metav1.LabelSelector{}}}
	default:
		// restricted: only the explicit access rules.
		return nil
	}
}

// accessPeer converts an access rule. Empty rules are dropped rather than
// turned into a selector matching everything.
func accessPeer(rule latest.AccessRule) (networkingv1.NetworkPolicyPeer, bool) {
	var peer networkingv1.NetworkPolicyPeer
	if rule.IsEmpty() {
		return peer, false
	}
	if rule.Namespace != "" {
		peer = namespacePeer(rule.Namespace)
	}
	if len(rule.PodLabels) > 0 {
		peer.PodSelector = &metav1.LabelSelector{MatchLabels: rule.PodLabels}
	}
	if rule.CIDR != "" {
		peer.IPBlock = &networkingv1.IPBlock{CIDR: rule.CIDR}
	}
	return peer, true
}

func namespacePeer(namespace string) networkingv1.NetworkPolicyPeer {
	return networkingv1.NetworkPolicyPeer{
		NamespaceSelector: &metav1.LabelSelector{MatchLabels: map[string]string{namespaceNameLabel: namespace}},
	}
}

func dnsRule() networkingv1.NetworkPolicyEgressRule {
	udp := corev1.ProtocolUDP
	tcp := corev1.ProtocolTCP
	port := intstr.FromInt32(53)
	return networkingv1.NetworkPolicyEgressRule{
		To: []networkingv1.NetworkPolicyPeer{{
			NamespaceSelector: &metav1.LabelSelector{},
			PodSelector:       &metav1.LabelSelector{MatchLabels: map[string]string{"k8s-app": "kube-dns"}},
		}},
		Ports: []networkingv1.NetworkPolicyPort{
			{Protocol: &udp, Port: &port},
			{Protocol: &tcp, Port: &port},
		},
	}
}

func tcpPort(port int32) networkingv1.NetworkPolicyPort {
	protocol := corev1.ProtocolTCP
	p := intstr.FromInt32(port)
	return networkingv1.NetworkPolicyPort{Protocol: &protocol, Port: &p}
}
